package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Firestore struct {
	db *firestore.Client
	eb *goerr.Builder
}

var (
	_ interfaces.DocumentStore  = &Firestore{}
	_ interfaces.DocumentWriter = &Firestore{}
)

func NewFirestore(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project ID is required", goerr.T(errs.TagValidation))
	}

	db, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		)
	}

	return &Firestore{
		db: db,
		eb: goerr.NewBuilder(goerr.TV(errs.RepositoryKey, "firestore"), goerr.T(errs.TagDatabase)),
	}, nil
}

func (r *Firestore) Close() error {
	return r.db.Close()
}

func (r *Firestore) query(q interfaces.Query) firestore.Query {
	dir := firestore.Asc
	if q.Direction == interfaces.Desc {
		dir = firestore.Desc
	}
	return r.db.Collection(q.Collection).OrderBy(q.OrderBy, dir)
}

type firestoreDocument struct {
	snap *firestore.DocumentSnapshot
}

func (x firestoreDocument) ID() string { return x.snap.Ref.ID }

func (x firestoreDocument) Data() map[string]any { return x.snap.Data() }

func toDocuments(snaps []*firestore.DocumentSnapshot) []interfaces.Document {
	docs := make([]interfaces.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, firestoreDocument{snap: snap})
	}
	return docs
}

func (r *Firestore) Documents(ctx context.Context, q interfaces.Query) ([]interfaces.Document, error) {
	snaps, err := r.query(q).Documents(ctx).GetAll()
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to get documents",
			goerr.TV(errs.CollectionKey, q.Collection),
			goerr.V("order_by", q.OrderBy),
			goerr.V("direction", q.Direction.String()),
		)
	}
	return toDocuments(snaps), nil
}

// Listen drives a snapshot iterator on its own goroutine. The first error
// ends the listener; errors caused by stop or ctx are not delivered.
func (r *Firestore) Listen(ctx context.Context, q interfaces.Query, fn interfaces.SnapshotFunc) func() {
	ctx, cancel := context.WithCancel(ctx)
	it := r.query(q).Snapshots(ctx)
	logger := logging.From(ctx).With("collection", q.Collection)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if ctx.Err() != nil {
				logger.Debug("snapshot listener stopped")
				return
			}
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				fn(nil, r.eb.Wrap(err, "failed to receive snapshot", goerr.TV(errs.CollectionKey, q.Collection)))
				return
			}

			snaps, err := snap.Documents.GetAll()
			if err != nil {
				fn(nil, r.eb.Wrap(err, "failed to read snapshot documents", goerr.TV(errs.CollectionKey, q.Collection)))
				return
			}

			logger.Debug("snapshot received",
				"size", snap.Size,
				"changes", len(snap.Changes),
				"read_time", snap.ReadTime,
			)
			fn(toDocuments(snaps), nil)
		}
	}()

	return cancel
}

func (r *Firestore) Put(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	ref := r.db.Collection(collection).NewDoc()
	if id != "" {
		ref = r.db.Collection(collection).Doc(id)
	}

	if _, err := ref.Set(ctx, data); err != nil {
		return "", r.eb.Wrap(err, "failed to put document",
			goerr.TV(errs.CollectionKey, collection),
			goerr.TV(errs.DocumentIDKey, ref.ID),
		)
	}
	return ref.ID, nil
}
