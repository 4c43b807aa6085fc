package repository

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
)

// Memory is an in-process document store. Query ordering follows
// Firestore: documents without the order field are left out and ties are
// broken by document ID in the same direction.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	listeners   map[string]map[*memoryListener]struct{}
	fetchErr    error

	eb *goerr.Builder
}

var (
	_ interfaces.DocumentStore  = &Memory{}
	_ interfaces.DocumentWriter = &Memory{}
)

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]any),
		listeners:   make(map[string]map[*memoryListener]struct{}),
		eb:          goerr.NewBuilder(goerr.TV(errs.RepositoryKey, "memory")),
	}
}

type memoryDocument struct {
	id   string
	data map[string]any
}

func (x memoryDocument) ID() string { return x.id }

func (x memoryDocument) Data() map[string]any { return maps.Clone(x.data) }

// SetFetchError makes every following Documents call fail with err. A nil
// err restores normal behaviour.
func (r *Memory) SetFetchError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchErr = err
}

func (r *Memory) Documents(ctx context.Context, q interfaces.Query) ([]interfaces.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.fetchErr != nil {
		return nil, r.eb.Wrap(r.fetchErr, "failed to get documents",
			goerr.TV(errs.CollectionKey, q.Collection),
			goerr.T(errs.TagDatabase))
	}
	return r.run(q), nil
}

// run must be called with r.mu held.
func (r *Memory) run(q interfaces.Query) []interfaces.Document {
	docs := make([]memoryDocument, 0, len(r.collections[q.Collection]))
	for id, data := range r.collections[q.Collection] {
		if _, ok := data[q.OrderBy]; !ok {
			continue
		}
		docs = append(docs, memoryDocument{id: id, data: data})
	}

	sort.Slice(docs, func(i, j int) bool {
		a := fmt.Sprint(docs[i].data[q.OrderBy])
		b := fmt.Sprint(docs[j].data[q.OrderBy])
		if a == b {
			a, b = docs[i].id, docs[j].id
		}
		if q.Direction == interfaces.Desc {
			return a > b
		}
		return a < b
	})

	result := make([]interfaces.Document, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc)
	}
	return result
}

func (r *Memory) Put(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	if collection == "" {
		return "", r.eb.New("collection is empty", goerr.T(errs.TagValidation))
	}
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.collections[collection]; !ok {
		r.collections[collection] = make(map[string]map[string]any)
	}
	r.collections[collection][id] = maps.Clone(data)
	r.notify(collection)

	return id, nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (r *Memory) Delete(ctx context.Context, collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.collections[collection][id]; !ok {
		return nil
	}
	delete(r.collections[collection], id)
	r.notify(collection)
	return nil
}

// Fail delivers err to every listener of collection and detaches them.
func (r *Memory) Fail(collection string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wrapped := r.eb.Wrap(err, "listener failed", goerr.TV(errs.CollectionKey, collection), goerr.T(errs.TagDatabase))
	for l := range r.listeners[collection] {
		l.enqueue(memoryEvent{err: wrapped})
		l.close()
	}
	delete(r.listeners, collection)
}

// ListenerCount returns the number of attached listeners of collection.
func (r *Memory) ListenerCount(collection string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[collection])
}

// notify must be called with r.mu held.
func (r *Memory) notify(collection string) {
	for l := range r.listeners[collection] {
		l.enqueue(memoryEvent{docs: r.run(l.query)})
	}
}

func (r *Memory) Listen(ctx context.Context, q interfaces.Query, fn interfaces.SnapshotFunc) func() {
	ctx, cancel := context.WithCancel(ctx)
	l := &memoryListener{
		query:  q,
		fn:     fn,
		ctx:    ctx,
		wakeup: make(chan struct{}, 1),
	}

	r.mu.Lock()
	if _, ok := r.listeners[q.Collection]; !ok {
		r.listeners[q.Collection] = make(map[*memoryListener]struct{})
	}
	r.listeners[q.Collection][l] = struct{}{}
	l.enqueue(memoryEvent{docs: r.run(q)})
	r.mu.Unlock()

	go l.loop()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			r.mu.Lock()
			delete(r.listeners[q.Collection], l)
			r.mu.Unlock()
		})
	}
	context.AfterFunc(ctx, stop)

	return stop
}

type memoryEvent struct {
	docs []interfaces.Document
	err  error
}

type memoryListener struct {
	query interfaces.Query
	fn    interfaces.SnapshotFunc
	ctx   context.Context

	mu     sync.Mutex
	queue  []memoryEvent
	closed bool
	wakeup chan struct{}
}

func (l *memoryListener) enqueue(ev memoryEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.queue = append(l.queue, ev)
	select {
	case l.wakeup <- struct{}{}:
	default:
	}
}

// close stops accepting events; already queued ones are still delivered.
func (l *memoryListener) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func (l *memoryListener) next() (memoryEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return memoryEvent{}, false
	}
	ev := l.queue[0]
	l.queue = l.queue[1:]
	return ev, true
}

func (l *memoryListener) loop() {
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-l.wakeup:
		}

		for {
			ev, ok := l.next()
			if !ok {
				break
			}
			if l.ctx.Err() != nil {
				return
			}
			l.fn(ev.docs, ev.err)
			if ev.err != nil {
				return
			}
		}
	}
}
