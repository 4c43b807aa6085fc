package cli

import (
	"context"
	"log/slog"
	"time"

	firestoreadmin "cloud.google.com/go/firestore/apiv1/admin"
	adminpb "cloud.google.com/go/firestore/apiv1/admin/adminpb"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/cli/config"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/sanuvia/sanuvia/pkg/utils/safe"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/iterator"
)

const indexPollInterval = 10 * time.Second

func cmdMigrate() *cli.Command {
	var (
		firestoreCfg config.Firestore
		illnessCfg   config.Illness
		dryRun       bool
	)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the Firestore indexes the illness query needs",
		Flags: joinFlags(
			[]cli.Flag{
				&cli.BoolFlag{
					Name:        "dry-run",
					Usage:       "Show what would be changed without applying",
					Destination: &dryRun,
				},
			},
			firestoreCfg.Flags(),
			illnessCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			return runMigrate(ctx, &firestoreCfg, &illnessCfg, dryRun)
		},
	}
}

func runMigrate(ctx context.Context, cfg *config.Firestore, illnessCfg *config.Illness, dryRun bool) error {
	logger := logging.From(ctx)

	if !cfg.IsConfigured() {
		return goerr.New("firestore-project-id is required", goerr.T(errs.TagValidation))
	}
	projectID, databaseID := cfg.ProjectID(), cfg.DatabaseID()

	collection, err := illnessCfg.Collection()
	if err != nil {
		return err
	}
	fields, err := illnessCfg.Fields()
	if err != nil {
		return err
	}

	logger.Info("starting Firestore migration",
		"project_id", projectID,
		"database_id", databaseID,
		"collection", collection,
		"dry_run", dryRun,
	)

	indexConfig := defineFirestoreIndexes(collection, fields)

	opts := []fireconf.Option{fireconf.WithLogger(logger)}
	if dryRun {
		logger.Info("dry-run mode: showing planned changes without applying")
		opts = append(opts, fireconf.WithDryRun(true))
	}

	client, err := fireconf.NewClient(ctx, projectID, databaseID, opts...)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		)
	}

	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to migrate indexes",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
			goerr.V("dry_run", dryRun),
		)
	}

	if !dryRun {
		if err := waitForIndexesReady(ctx, cfg, indexConfig, logger.With("phase", "wait_ready")); err != nil {
			return goerr.Wrap(err, "indexes did not become ready",
				goerr.V("project_id", projectID),
				goerr.V("database_id", databaseID),
			)
		}
	}

	logger.Info("migration completed")
	return nil
}

// waitForIndexesReady polls the Admin API until no index of the managed
// collections is still being built.
func waitForIndexesReady(ctx context.Context, cfg *config.Firestore, indexConfig *fireconf.Config, logger *slog.Logger) error {
	adminClient, err := firestoreadmin.NewFirestoreAdminClient(ctx, cfg.ClientOptions()...)
	if err != nil {
		return goerr.Wrap(err, "failed to create firestore admin client")
	}
	defer safe.Close(ctx, adminClient)

	ticker := time.NewTicker(indexPollInterval)
	defer ticker.Stop()

	for {
		ready := true

		for _, col := range indexConfig.Collections {
			parent := "projects/" + cfg.ProjectID() + "/databases/" + cfg.DatabaseID() + "/collectionGroups/" + col.Name

			it := adminClient.ListIndexes(ctx, &adminpb.ListIndexesRequest{Parent: parent})
			for {
				idx, err := it.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to list indexes", goerr.TV(errs.CollectionKey, col.Name))
				}

				state := idx.GetState()
				if state == adminpb.Index_CREATING || state == adminpb.Index_NEEDS_REPAIR {
					ready = false
					logger.Info("index not yet ready, waiting",
						"collection", col.Name,
						"index", idx.GetName(),
						"state", state.String(),
					)
				}
			}
		}

		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// defineFirestoreIndexes declares the index serving the newest-first query,
// with document name as the tie breaker.
func defineFirestoreIndexes(collection string, fields model.Fields) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: collection,
				Indexes: []fireconf.Index{
					{
						QueryScope: fireconf.QueryScopeCollection,
						Fields: []fireconf.IndexField{
							{
								Path:  fields.Date,
								Order: fireconf.OrderDescending,
							},
							{
								Path:  "__name__",
								Order: fireconf.OrderDescending,
							},
						},
					},
				},
			},
		},
	}
}
