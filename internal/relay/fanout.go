package relay

import (
	"context"
	"errors"

	"github.com/livecharge/livecharge/internal/station"
)

// Fanout publishes every update to each of its publishers in order. A
// failing publisher does not stop the others; their errors are joined.
type Fanout []station.Publisher

// Publish implements station.Publisher.
func (f Fanout) Publish(ctx context.Context, update station.Update) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, update); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ensure Fanout implements station.Publisher.
var _ station.Publisher = Fanout(nil)
