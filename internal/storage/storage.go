package storage

import (
	"context"
	"errors"

	"marketScope/internal/model"
)

// VenueSink receives venue snapshots after each registry swap.
type VenueSink interface {
	PutVenueBatch(ctx context.Context, venues []model.Venue) error
}

// Multi fans a batch out to several sinks and joins their errors.
type Multi []VenueSink

func (m Multi) PutVenueBatch(ctx context.Context, venues []model.Venue) error {
	var errs []error
	for _, sink := range m {
		if err := sink.PutVenueBatch(ctx, venues); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
