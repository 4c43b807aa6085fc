package illness_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/repository"
	"github.com/sanuvia/sanuvia/pkg/service/illness"
	"github.com/sanuvia/sanuvia/pkg/utils/ptr"
)

type fakeDocument struct {
	id   string
	data map[string]any
}

func (x fakeDocument) ID() string            { return x.id }
func (x fakeDocument) Data() map[string]any { return x.data }

// fakeStore returns whatever the test sets and lets the test push
// notifications to the single listener by hand.
type fakeStore struct {
	docs     []interfaces.Document
	fetchErr error

	mu        sync.Mutex
	queries   []interfaces.Query
	listener  interfaces.SnapshotFunc
	stopCalls int
}

func (x *fakeStore) Documents(ctx context.Context, q interfaces.Query) ([]interfaces.Document, error) {
	x.mu.Lock()
	x.queries = append(x.queries, q)
	x.mu.Unlock()
	if x.fetchErr != nil {
		return nil, x.fetchErr
	}
	return x.docs, nil
}

func (x *fakeStore) Listen(ctx context.Context, q interfaces.Query, fn interfaces.SnapshotFunc) func() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.queries = append(x.queries, q)
	x.listener = fn
	return func() {
		x.mu.Lock()
		defer x.mu.Unlock()
		x.stopCalls++
	}
}

func (x *fakeStore) emit(docs []interfaces.Document, err error) {
	x.mu.Lock()
	fn := x.listener
	x.mu.Unlock()
	fn(docs, err)
}

func datedDocs(dates ...string) []interfaces.Document {
	docs := make([]interfaces.Document, 0, len(dates))
	for _, date := range dates {
		docs = append(docs, fakeDocument{id: date, data: map[string]any{"date": date, "title": "t" + date}})
	}
	return docs
}

func dates(records []model.Record) []string {
	result := make([]string, 0, len(records))
	for _, r := range records {
		result = append(result, ptr.DerefOr(r.Date, "<absent>"))
	}
	return result
}

func waitValue(t *testing.T, svc *illness.Service) ([]model.Record, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	v := svc.FetchOnce(ctx)
	got, err := v.Wait(ctx)
	gt.NoError(t, err).Required()

	again, ok := v.Get()
	gt.True(t, ok)
	gt.Equal(t, len(again), len(got))
	return got, got != nil
}

func TestQuery(t *testing.T) {
	t.Run("default layout", func(t *testing.T) {
		svc := illness.New(&fakeStore{})
		gt.Equal(t, svc.Query(), interfaces.Query{
			Collection: "childhood_illnesses",
			OrderBy:    "date",
			Direction:  interfaces.Desc,
		})
	})

	t.Run("legacy layout", func(t *testing.T) {
		svc := illness.New(&fakeStore{},
			illness.WithCollection(model.LegacyCollection),
			illness.WithFields(model.LegacyFields),
		)
		gt.Equal(t, svc.Query(), interfaces.Query{
			Collection: "enfermedades_infantiles",
			OrderBy:    "fecha",
			Direction:  interfaces.Desc,
		})
	})
}

func TestFetchOnce(t *testing.T) {
	t.Run("publishes records in store order", func(t *testing.T) {
		store := &fakeStore{docs: datedDocs("2023-01-01", "2024-06-01", "2022-12-31")}
		got, ok := waitValue(t, illness.New(store))
		gt.True(t, ok)
		gt.Equal(t, dates(got), []string{"2023-01-01", "2024-06-01", "2022-12-31"})
		gt.Equal(t, *got[0].Title, "t2023-01-01")
	})

	t.Run("zero documents publishes empty sequence", func(t *testing.T) {
		store := &fakeStore{docs: []interfaces.Document{}}
		got, ok := waitValue(t, illness.New(store))
		gt.True(t, ok)
		gt.A(t, got).Length(0)
	})

	t.Run("failure publishes absent value", func(t *testing.T) {
		store := &fakeStore{fetchErr: errors.New("permission denied")}
		got, ok := waitValue(t, illness.New(store))
		gt.False(t, ok)
		gt.True(t, got == nil)
	})

	t.Run("queries configured collection", func(t *testing.T) {
		store := &fakeStore{docs: nil}
		svc := illness.New(store, illness.WithCollection("other"))
		waitValue(t, svc)

		store.mu.Lock()
		defer store.mu.Unlock()
		gt.A(t, store.queries).Length(1)
		gt.Equal(t, store.queries[0].Collection, "other")
	})
}

func TestFetch(t *testing.T) {
	t.Run("returns store error", func(t *testing.T) {
		cause := errors.New("network unreachable")
		svc := illness.New(&fakeStore{fetchErr: cause})

		got, err := svc.Fetch(t.Context())
		gt.Error(t, err)
		gt.True(t, errors.Is(err, cause))
		gt.True(t, goerr.HasTag(err, errs.TagDatabase))
		gt.True(t, got == nil)
	})

	t.Run("missing fields stay absent", func(t *testing.T) {
		svc := illness.New(&fakeStore{docs: []interfaces.Document{
			fakeDocument{id: "a", data: map[string]any{"date": "2024-01-01"}},
		}})

		got, err := svc.Fetch(t.Context())
		gt.NoError(t, err)
		gt.A(t, got).Length(1)
		gt.Nil(t, got[0].Title)
		gt.Nil(t, got[0].Description)
		gt.Nil(t, got[0].ImageURL)
		gt.Equal(t, *got[0].Date, "2024-01-01")
	})
}

type callbacks struct {
	mu      sync.Mutex
	updates [][]model.Record
	errs    []error
}

func (x *callbacks) onUpdate(records []model.Record) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.updates = append(x.updates, records)
}

func (x *callbacks) onError(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.errs = append(x.errs, err)
}

func (x *callbacks) counts() (int, int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.updates), len(x.errs)
}

func TestSubscribe(t *testing.T) {
	t.Run("delivers records without re-sorting", func(t *testing.T) {
		store := &fakeStore{}
		var cb callbacks
		sub := illness.New(store).Subscribe(t.Context(), cb.onUpdate, cb.onError)
		defer sub.Cancel()

		store.emit(datedDocs("2023-01-01", "2024-06-01", "2022-12-31"), nil)

		updates, errCount := cb.counts()
		gt.Equal(t, updates, 1)
		gt.Equal(t, errCount, 0)
		gt.Equal(t, dates(cb.updates[0]), []string{"2023-01-01", "2024-06-01", "2022-12-31"})
	})

	t.Run("error after update is forwarded once", func(t *testing.T) {
		store := &fakeStore{}
		var cb callbacks
		sub := illness.New(store).Subscribe(t.Context(), cb.onUpdate, cb.onError)
		defer sub.Cancel()

		cause := errors.New("listen failed")
		store.emit(datedDocs("2024-01-01"), nil)
		store.emit(nil, cause)

		updates, errCount := cb.counts()
		gt.Equal(t, updates, 1)
		gt.Equal(t, errCount, 1)
		gt.Equal(t, cb.errs[0], cause)
	})

	t.Run("empty snapshot yields empty update", func(t *testing.T) {
		store := &fakeStore{}
		var cb callbacks
		sub := illness.New(store).Subscribe(t.Context(), cb.onUpdate, cb.onError)
		defer sub.Cancel()

		store.emit(nil, nil)
		gt.A(t, cb.updates).Length(1)
		gt.True(t, cb.updates[0] != nil)
		gt.A(t, cb.updates[0]).Length(0)
	})

	t.Run("cancel is idempotent and halts callbacks", func(t *testing.T) {
		store := &fakeStore{}
		var cb callbacks
		sub := illness.New(store).Subscribe(t.Context(), cb.onUpdate, cb.onError)
		gt.True(t, sub.Active())

		sub.Cancel()
		sub.Cancel()
		gt.False(t, sub.Active())

		store.mu.Lock()
		gt.Equal(t, store.stopCalls, 1)
		store.mu.Unlock()

		store.emit(datedDocs("2024-01-01"), nil)
		store.emit(nil, errors.New("late"))
		updates, errCount := cb.counts()
		gt.Equal(t, updates, 0)
		gt.Equal(t, errCount, 0)
	})

	t.Run("registers the descending date query", func(t *testing.T) {
		store := &fakeStore{}
		sub := illness.New(store, illness.WithFields(model.LegacyFields)).
			Subscribe(t.Context(), func([]model.Record) {}, func(error) {})
		defer sub.Cancel()

		store.mu.Lock()
		defer store.mu.Unlock()
		gt.A(t, store.queries).Length(1)
		gt.Equal(t, store.queries[0].OrderBy, "fecha")
		gt.Equal(t, store.queries[0].Direction, interfaces.Desc)
	})
}

func TestSubscribeWithMemory(t *testing.T) {
	ctx := t.Context()
	repo := repository.NewMemory()
	svc := illness.New(repo)

	_, err := repo.Put(ctx, model.DefaultCollection, "a", map[string]any{"date": "2023-01-01", "title": "Sarampión"})
	gt.NoError(t, err).Required()

	updates := make(chan []model.Record, 16)
	failures := make(chan error, 16)
	sub := svc.Subscribe(ctx,
		func(r []model.Record) { updates <- r },
		func(err error) { failures <- err },
	)
	defer sub.Cancel()

	next := func() []model.Record {
		select {
		case r := <-updates:
			return r
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for update")
			return nil
		}
	}

	gt.Equal(t, dates(next()), []string{"2023-01-01"})

	_, err = repo.Put(ctx, model.DefaultCollection, "b", map[string]any{"date": "2024-06-01"})
	gt.NoError(t, err).Required()
	gt.Equal(t, dates(next()), []string{"2024-06-01", "2023-01-01"})

	repo.Fail(model.DefaultCollection, errors.New("backend gone"))
	select {
	case err := <-failures:
		gt.S(t, err.Error()).Contains("backend gone")
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for error")
	}
	gt.Equal(t, len(updates), 0)

	t.Run("cancel from inside onUpdate", func(t *testing.T) {
		done := make(chan struct{})
		var sub *illness.Subscription
		ready := make(chan struct{})
		sub = svc.Subscribe(ctx, func([]model.Record) {
			<-ready
			sub.Cancel()
			close(done)
		}, func(error) {})
		close(ready)

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("callback did not finish")
		}
		gt.False(t, sub.Active())
		gt.Equal(t, repo.ListenerCount(model.DefaultCollection), 0)
	})
}
