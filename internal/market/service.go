// Package market wires the per-venue order-book and event-queue streams onto
// refresh-ahead caches and serves them to readers.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"marketScope/internal/cache"
	"marketScope/internal/chain"
	"marketScope/internal/model"
	"marketScope/internal/serum"
)

// VenueID is a venue account address used as a cache key.
type VenueID string

// Venues resolves venue metadata.
type Venues interface {
	Venue(address string) (model.Venue, bool)
}

// AccountSource reads single accounts from the ledger.
type AccountSource interface {
	GetAccount(ctx context.Context, address string, opts chain.AccountOptions) (uint64, []byte, error)
}

// PriceSink receives mid prices derived from books.
type PriceSink interface {
	Pegged(mint string) bool
	Observe(mint string, price decimal.Decimal)
}

// Config controls the stream caches.
type Config struct {
	BookTTL     time.Duration
	EventTTL    time.Duration
	Commitment  chain.Commitment
	WarmWorkers int

	DecodeBook   func(data []byte, v model.Venue, side model.Side) (model.OrderBook, error)
	DecodeEvents func(data []byte, v model.Venue) (model.EventQueue, error)
}

// Book is both sides of a venue's book. Each side carries its own slot; the
// two are not guaranteed to come from the same slot.
type Book struct {
	Venue   model.Venue     `json:"venue"`
	Bids    model.OrderBook `json:"bids"`
	Asks    model.OrderBook `json:"asks"`
	BidSlot uint64          `json:"bid_slot"`
	AskSlot uint64          `json:"ask_slot"`
}

// Mid returns the midpoint of the best bid and ask.
func (b Book) Mid() (decimal.Decimal, bool) {
	bid, ok := b.Bids.Best()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.Asks.Best()
	if !ok {
		return decimal.Zero, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}

// Service owns the bid, ask and event-queue caches.
type Service struct {
	cfg    Config
	venues Venues
	source AccountSource
	prices PriceSink
	logger *zap.Logger

	bids   *cache.RefreshAhead[VenueID, model.OrderBook]
	asks   *cache.RefreshAhead[VenueID, model.OrderBook]
	events *cache.RefreshAhead[VenueID, model.EventQueue]
}

func NewService(cfg Config, venues Venues, source AccountSource, prices PriceSink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BookTTL <= 0 {
		cfg.BookTTL = 1500 * time.Millisecond
	}
	if cfg.EventTTL <= 0 {
		cfg.EventTTL = 3 * time.Second
	}
	if cfg.WarmWorkers <= 0 {
		cfg.WarmWorkers = 4
	}
	if cfg.DecodeBook == nil {
		cfg.DecodeBook = serum.DecodeOrderBook
	}
	if cfg.DecodeEvents == nil {
		cfg.DecodeEvents = serum.DecodeEventQueue
	}

	s := &Service{cfg: cfg, venues: venues, source: source, prices: prices, logger: logger}
	s.bids = cache.New[VenueID, model.OrderBook](cache.Config{Name: "bids", TTL: cfg.BookTTL},
		s.fetch(func(v model.Venue) string { return v.Bids }), s.decodeBook(model.SideBid), logger)
	s.asks = cache.New[VenueID, model.OrderBook](cache.Config{Name: "asks", TTL: cfg.BookTTL},
		s.fetch(func(v model.Venue) string { return v.Asks }), s.decodeBook(model.SideAsk), logger)
	s.events = cache.New[VenueID, model.EventQueue](cache.Config{Name: "events", TTL: cfg.EventTTL},
		s.fetch(func(v model.Venue) string { return v.EventQueue }), s.decodeEvents, logger)
	return s
}

func (s *Service) fetch(account func(model.Venue) string) cache.FetchFunc[VenueID] {
	return func(ctx context.Context, id VenueID, minSlot uint64) (uint64, []byte, error) {
		v, ok := s.venues.Venue(string(id))
		if !ok {
			return 0, nil, fmt.Errorf("venue %s: %w", id, model.ErrNotFound)
		}
		return s.source.GetAccount(ctx, account(v), chain.AccountOptions{MinSlot: minSlot, Commitment: s.cfg.Commitment})
	}
}

func (s *Service) decodeBook(side model.Side) cache.DecodeFunc[VenueID, model.OrderBook] {
	return func(id VenueID, raw []byte) (model.OrderBook, error) {
		v, ok := s.venues.Venue(string(id))
		if !ok {
			return model.OrderBook{}, fmt.Errorf("venue %s: %w", id, model.ErrNotFound)
		}
		return s.cfg.DecodeBook(raw, v, side)
	}
}

func (s *Service) decodeEvents(id VenueID, raw []byte) (model.EventQueue, error) {
	v, ok := s.venues.Venue(string(id))
	if !ok {
		return model.EventQueue{}, fmt.Errorf("venue %s: %w", id, model.ErrNotFound)
	}
	return s.cfg.DecodeEvents(raw, v)
}

// Bids returns the cached bid side of venue.
func (s *Service) Bids(ctx context.Context, venue string) (cache.Snapshot[model.OrderBook], bool) {
	return s.bids.Get(ctx, VenueID(venue))
}

// Asks returns the cached ask side of venue.
func (s *Service) Asks(ctx context.Context, venue string) (cache.Snapshot[model.OrderBook], bool) {
	return s.asks.Get(ctx, VenueID(venue))
}

// OrderBook returns both sides of venue. ok is false if either side has never
// been loaded. When the venue is quoted in a pegged mint its mid price is
// reported to the price sink for the base mint.
func (s *Service) OrderBook(ctx context.Context, venue string) (Book, bool) {
	v, ok := s.venues.Venue(venue)
	if !ok {
		return Book{}, false
	}
	bids, ok := s.Bids(ctx, venue)
	if !ok {
		return Book{}, false
	}
	asks, ok := s.Asks(ctx, venue)
	if !ok {
		return Book{}, false
	}
	book := Book{Venue: v, Bids: bids.Payload, Asks: asks.Payload, BidSlot: bids.Slot, AskSlot: asks.Slot}

	if s.prices != nil && s.prices.Pegged(v.QuoteMint) {
		if mid, ok := book.Mid(); ok {
			s.prices.Observe(v.BaseMint, mid)
		}
	}
	return book, true
}

// Fills returns the cached event queue of venue.
func (s *Service) Fills(ctx context.Context, venue string) (cache.Snapshot[model.EventQueue], bool) {
	return s.events.Get(ctx, VenueID(venue))
}

// Warm loads books and event queues for the given venues so later reads are
// served from cache. Failures are logged; the returned count is the number
// of venues with a complete book.
func (s *Service) Warm(ctx context.Context, venues []string) int {
	var (
		g     errgroup.Group
		ready = make(chan struct{}, len(venues))
	)
	g.SetLimit(s.cfg.WarmWorkers)
	for _, venue := range venues {
		venue := venue
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if _, ok := s.OrderBook(ctx, venue); !ok {
				s.logger.Warn("warm book failed", zap.String("venue", venue))
				return nil
			}
			if _, ok := s.Fills(ctx, venue); !ok {
				s.logger.Warn("warm events failed", zap.String("venue", venue))
			}
			ready <- struct{}{}
			return nil
		})
	}
	_ = g.Wait()
	return len(ready)
}

// Stats reports cache sizes.
func (s *Service) Stats() (bids, asks, events int) {
	return s.bids.Len(), s.asks.Len(), s.events.Len()
}
