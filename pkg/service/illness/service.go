// Package illness reads the childhood illness collection, once or live,
// and maps its documents to illness.Record.
package illness

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/sanuvia/sanuvia/pkg/utils/observable"
	"github.com/sanuvia/sanuvia/pkg/utils/safe"
)

type Service struct {
	store      interfaces.DocumentStore
	collection string
	fields     model.Fields
}

type Option func(*Service)

func WithCollection(name string) Option {
	return func(s *Service) {
		s.collection = name
	}
}

func WithFields(fields model.Fields) Option {
	return func(s *Service) {
		s.fields = fields
	}
}

func New(store interfaces.DocumentStore, opts ...Option) *Service {
	s := &Service{
		store:      store,
		collection: model.DefaultCollection,
		fields:     model.DefaultFields,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query is the query every operation of s runs: newest date first.
func (s *Service) Query() interfaces.Query {
	return interfaces.Query{
		Collection: s.collection,
		OrderBy:    s.fields.Date,
		Direction:  interfaces.Desc,
	}
}

func (s *Service) toRecords(docs []interfaces.Document) []model.Record {
	records := make([]model.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, s.fields.Map(doc.Data()))
	}
	return records
}

// Fetch runs the query once and returns the records in store order.
func (s *Service) Fetch(ctx context.Context) ([]model.Record, error) {
	docs, err := s.store.Documents(ctx, s.Query())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch illnesses",
			goerr.TV(errs.CollectionKey, s.collection),
			goerr.T(errs.TagDatabase))
	}
	return s.toRecords(docs), nil
}

// FetchOnce runs the query in the background and publishes the result
// once. A failed query publishes nil, so observers cannot tell a failure
// from missing data; use Fetch to get the error. A successful query with
// no documents publishes an empty, non-nil slice.
func (s *Service) FetchOnce(ctx context.Context) *observable.Value[[]model.Record] {
	result := observable.New[[]model.Record]()

	safe.Go(ctx, func() {
		records, err := s.Fetch(ctx)
		if err != nil {
			logging.From(ctx).Warn("fetch-once failed, publishing absent value", logging.ErrAttr(err))
			result.Publish(nil)
			return
		}
		result.Publish(records)
	})

	return result
}

// Subscription is the handle of a live query started by Subscribe.
type Subscription struct {
	active atomic.Bool

	mu   sync.Mutex
	stop func()
}

// Cancel ends the live query. No callback starts after Cancel returns.
// Calling it again has no effect.
func (x *Subscription) Cancel() {
	if !x.active.CompareAndSwap(true, false) {
		return
	}
	x.mu.Lock()
	stop := x.stop
	x.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// attach sets the store's stop function. The store may deliver, and the
// caller may cancel, before Listen returns.
func (x *Subscription) attach(stop func()) {
	x.mu.Lock()
	x.stop = stop
	x.mu.Unlock()
	if !x.active.Load() {
		stop()
	}
}

// Active reports whether the subscription still delivers callbacks.
func (x *Subscription) Active() bool {
	return x.active.Load()
}

// Subscribe attaches a live query. For each notification either onError is
// called with the store error or onUpdate with the records in store order.
// Callbacks run on the store's delivery goroutine, one at a time. After an
// error the store ends the query and nothing re-establishes it.
func (s *Service) Subscribe(ctx context.Context, onUpdate func([]model.Record), onError func(error)) *Subscription {
	sub := &Subscription{}
	sub.active.Store(true)

	logger := logging.From(ctx).With("collection", s.collection)

	stop := s.store.Listen(ctx, s.Query(), func(docs []interfaces.Document, err error) {
		if !sub.active.Load() {
			return
		}
		if err != nil {
			logger.Debug("subscription received error", logging.ErrAttr(err))
			onError(err)
			return
		}
		onUpdate(s.toRecords(docs))
	})
	sub.attach(stop)

	return sub
}
