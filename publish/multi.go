package publish

import (
	"context"
	"errors"
)

// MultiPublisher publishes to every target in order. The URL of the first
// target that returns one is reported; every failure is joined.
type MultiPublisher []Publisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(ctx context.Context, doc Document) (string, error) {
	var (
		url  string
		errs []error
	)
	for _, p := range m {
		if p == nil {
			continue
		}
		got, err := p.Publish(ctx, doc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if url == "" {
			url = got
		}
	}
	return url, errors.Join(errs...)
}
