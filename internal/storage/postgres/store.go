package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS venues (
	address TEXT PRIMARY KEY,
	base_mint TEXT NOT NULL,
	quote_mint TEXT NOT NULL,
	base_vault TEXT NOT NULL,
	quote_vault TEXT NOT NULL,
	base_decimals SMALLINT NOT NULL,
	quote_decimals SMALLINT NOT NULL,
	base_lot_size BIGINT NOT NULL,
	quote_lot_size BIGINT NOT NULL,
	bids TEXT NOT NULL,
	asks TEXT NOT NULL,
	event_queue TEXT NOT NULL,
	base_deposits_total BIGINT NOT NULL,
	quote_deposits_total BIGINT NOT NULL,
	quote_fees_accrued BIGINT NOT NULL,
	fee_rate_bps BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS venues_base_mint_idx ON venues (base_mint);
CREATE TABLE IF NOT EXISTS provenance (
	venue TEXT NOT NULL,
	sub_account TEXT NOT NULL,
	owner TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL,
	quantity DOUBLE PRECISION NOT NULL,
	state TEXT NOT NULL,
	signature TEXT NOT NULL DEFAULT '',
	resolved_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (venue, sub_account, owner, price, quantity)
);
CREATE TABLE IF NOT EXISTS marketd_state (
	name TEXT PRIMARY KEY,
	last_refresh_ts BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Store provides Postgres persistence for venues, provenance outcomes and
// refresh state.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// PutVenueBatch upserts a registry snapshot.
func (s *Store) PutVenueBatch(ctx context.Context, venues []model.Venue) error {
	return s.UpsertVenues(ctx, venues)
}

// UpsertVenues inserts or updates venue metadata.
func (s *Store) UpsertVenues(ctx context.Context, venues []model.Venue) error {
	if len(venues) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, v := range venues {
		batch.Queue(`
			INSERT INTO venues (
				address, base_mint, quote_mint, base_vault, quote_vault, base_decimals, quote_decimals,
				base_lot_size, quote_lot_size, bids, asks, event_queue,
				base_deposits_total, quote_deposits_total, quote_fees_accrued, fee_rate_bps, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
			ON CONFLICT (address)
			DO UPDATE SET
				base_mint = EXCLUDED.base_mint,
				quote_mint = EXCLUDED.quote_mint,
				base_vault = EXCLUDED.base_vault,
				quote_vault = EXCLUDED.quote_vault,
				base_decimals = EXCLUDED.base_decimals,
				quote_decimals = EXCLUDED.quote_decimals,
				base_lot_size = EXCLUDED.base_lot_size,
				quote_lot_size = EXCLUDED.quote_lot_size,
				bids = EXCLUDED.bids,
				asks = EXCLUDED.asks,
				event_queue = EXCLUDED.event_queue,
				base_deposits_total = EXCLUDED.base_deposits_total,
				quote_deposits_total = EXCLUDED.quote_deposits_total,
				quote_fees_accrued = EXCLUDED.quote_fees_accrued,
				fee_rate_bps = EXCLUDED.fee_rate_bps,
				updated_at = now()
		`,
			v.Address,
			v.BaseMint,
			v.QuoteMint,
			v.BaseVault,
			v.QuoteVault,
			int16(v.BaseDecimals),
			int16(v.QuoteDecimals),
			int64(v.BaseLotSize),
			int64(v.QuoteLotSize),
			v.Bids,
			v.Asks,
			v.EventQueue,
			int64(v.BaseDepositsTotal),
			int64(v.QuoteDepositsTotal),
			int64(v.QuoteFeesAccrued),
			int64(v.FeeRateBps),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range venues {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadVenues returns every persisted venue, for warm starts.
func (s *Store) LoadVenues(ctx context.Context) ([]model.Venue, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT address, base_mint, quote_mint, base_vault, quote_vault, base_decimals, quote_decimals,
			base_lot_size, quote_lot_size, bids, asks, event_queue,
			base_deposits_total, quote_deposits_total, quote_fees_accrued, fee_rate_bps
		FROM venues
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		var (
			v                                    model.Venue
			baseDec, quoteDec                    int16
			baseLot, quoteLot                    int64
			baseDep, quoteDep, quoteFees, feeBps int64
		)
		if err := rows.Scan(
			&v.Address, &v.BaseMint, &v.QuoteMint, &v.BaseVault, &v.QuoteVault, &baseDec, &quoteDec,
			&baseLot, &quoteLot, &v.Bids, &v.Asks, &v.EventQueue,
			&baseDep, &quoteDep, &quoteFees, &feeBps,
		); err != nil {
			return nil, err
		}
		v.BaseDecimals = uint8(baseDec)
		v.QuoteDecimals = uint8(quoteDec)
		v.BaseLotSize = uint64(baseLot)
		v.QuoteLotSize = uint64(quoteLot)
		v.BaseDepositsTotal = uint64(baseDep)
		v.QuoteDepositsTotal = uint64(quoteDep)
		v.QuoteFeesAccrued = uint64(quoteFees)
		v.FeeRateBps = uint64(feeBps)
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// RecordProvenance stores a resolved provenance outcome. Existing rows are
// left untouched since resolved outcomes never change.
func (s *Store) RecordProvenance(ctx context.Context, fp model.Fingerprint, res model.ProvenanceResult) error {
	if !res.Resolved() {
		return fmt.Errorf("provenance %s is not resolved", fp)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO provenance (venue, sub_account, owner, price, quantity, state, signature, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (venue, sub_account, owner, price, quantity) DO NOTHING
	`, fp.Venue, fp.SubAccount, fp.Owner, fp.Price, fp.Quantity, res.State.String(), res.Signature)
	return err
}

// LoadProvenance returns every stored outcome.
func (s *Store) LoadProvenance(ctx context.Context) (map[model.Fingerprint]model.ProvenanceResult, error) {
	rows, err := s.pool.Query(ctx, `SELECT venue, sub_account, owner, price, quantity, state, signature FROM provenance`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.Fingerprint]model.ProvenanceResult)
	for rows.Next() {
		var (
			fp        model.Fingerprint
			state     string
			signature string
		)
		if err := rows.Scan(&fp.Venue, &fp.SubAccount, &fp.Owner, &fp.Price, &fp.Quantity, &state, &signature); err != nil {
			return nil, err
		}
		switch state {
		case model.ProvenancePresent.String():
			out[fp] = model.PresentProvenance(signature)
		case model.ProvenanceEmpty.String():
			out[fp] = model.EmptyProvenance()
		}
	}
	return out, rows.Err()
}

// LoadState returns last_refresh_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_refresh_ts FROM marketd_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_refresh_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO marketd_state (name, last_refresh_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_refresh_ts = EXCLUDED.last_refresh_ts, updated_at = now()
	`, name, int64(ts))
	return err
}
