package interfaces

import (
	"context"
	"io"
)

type Direction int

const (
	Asc Direction = iota + 1
	Desc
)

func (x Direction) String() string {
	switch x {
	case Asc:
		return "asc"
	case Desc:
		return "desc"
	default:
		return "unknown"
	}
}

// Query reads one collection ordered by a single field.
type Query struct {
	Collection string
	OrderBy    string
	Direction  Direction
}

// Document is one stored document as returned by a DocumentStore.
type Document interface {
	ID() string
	Data() map[string]any
}

// SnapshotFunc receives either the current result set of a live query or
// an error. After an error no further calls are made.
type SnapshotFunc func(docs []Document, err error)

type DocumentStore interface {
	// Documents runs q once and returns the documents in query order.
	Documents(ctx context.Context, q Query) ([]Document, error)

	// Listen attaches fn to q until stop is called or ctx is done. Calls to
	// fn are sequential, in arrival order.
	Listen(ctx context.Context, q Query, fn SnapshotFunc) (stop func())
}

type DocumentWriter interface {
	// Put stores data under id in collection. An empty id allocates a new
	// document; the assigned id is returned.
	Put(ctx context.Context, collection, id string, data map[string]any) (string, error)
}

// ObjectStore reads and writes whole objects, such as seed files.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucket, object string) io.WriteCloser
}
