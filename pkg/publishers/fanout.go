package publishers

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Fanout delivers each event to every configured publisher concurrently.
type Fanout struct {
	publishers []Publisher
}

// NewFanout drops nil entries and keeps the rest in order.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Publish waits for every delivery and returns how many succeeded. Failures are
// joined in publisher order.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f.Size() == 0 {
		return 0, nil
	}

	failures := make([]error, len(f.publishers))
	var wg sync.WaitGroup
	for i, p := range f.publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Publish(ctx, evt); err != nil {
				failures[i] = fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
			}
		}()
	}
	wg.Wait()

	delivered := 0
	for _, err := range failures {
		if err == nil {
			delivered++
		}
	}
	return delivered, errors.Join(failures...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases connection-holding publishers, last built first.
func (f *Fanout) Close() error {
	var errs []error
	for i := f.Size() - 1; i >= 0; i-- {
		p := f.publishers[i]
		c, ok := p.(closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
