package repository_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	"github.com/sanuvia/sanuvia/pkg/repository"
	"github.com/sanuvia/sanuvia/pkg/utils/safe"
	"github.com/sanuvia/sanuvia/pkg/utils/test"
)

// store is what both implementations provide.
type store interface {
	interfaces.DocumentStore
	interfaces.DocumentWriter
}

func newFirestoreClient(t *testing.T) *repository.Firestore {
	projectID, databaseID := test.Firestore(t)
	client, err := repository.NewFirestore(t.Context(), projectID, databaseID)
	gt.NoError(t, err).Required()
	t.Cleanup(func() { safe.Close(t.Context(), client) })
	return client
}

// newTestCollection returns a collection name no other test run uses.
func newTestCollection() string {
	return fmt.Sprintf("test_illnesses_%d_%s", time.Now().Unix(), uuid.NewString()[:8])
}

func runStores(t *testing.T, testFn func(t *testing.T, repo store)) {
	t.Run("Memory", func(t *testing.T) {
		testFn(t, repository.NewMemory())
	})

	t.Run("Firestore", func(t *testing.T) {
		testFn(t, newFirestoreClient(t))
	})
}

type snapshot struct {
	docs []interfaces.Document
	err  error
}

// recorder collects listener callbacks into a channel.
func recorder() (interfaces.SnapshotFunc, <-chan snapshot) {
	ch := make(chan snapshot, 64)
	return func(docs []interfaces.Document, err error) {
		ch <- snapshot{docs: docs, err: err}
	}, ch
}

func receive(t *testing.T, ch <-chan snapshot) snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for snapshot")
		return snapshot{}
	}
}

func ids(docs []interfaces.Document) []string {
	result := make([]string, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc.ID())
	}
	return result
}
