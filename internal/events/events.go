package events

import (
	"context"

	"github.com/yourorg/consensus-api/yelp"
)

// SearchCompleted is emitted after a provider call yields normalized
// businesses; the archive pipeline consumes it off the request path.
type SearchCompleted struct {
	Provider   string
	Endpoint   string
	Query      string
	Raw        []byte
	Businesses []yelp.Business
}

type Publisher interface {
	PublishSearchCompleted(ctx context.Context, evt SearchCompleted)
	SubscribeSearchCompleted() <-chan SearchCompleted
}

type inMemory struct{ ch chan SearchCompleted }

func NewInMemory(buffer int) Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &inMemory{ch: make(chan SearchCompleted, buffer)}
}

func (m *inMemory) PublishSearchCompleted(_ context.Context, evt SearchCompleted) {
	select {
	case m.ch <- evt:
	default: // drop if saturated; archiving is best-effort
	}
}

func (m *inMemory) SubscribeSearchCompleted() <-chan SearchCompleted { return m.ch }
