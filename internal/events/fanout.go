package events

import "context"

// Fanout publishes every event to each wrapped publisher in order. A failing
// publisher does not stop the others; the first error is returned.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, topic string, event any) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, topic, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f Fanout) Close() error {
	var first error
	for _, p := range f {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
