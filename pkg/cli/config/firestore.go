package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	"github.com/sanuvia/sanuvia/pkg/repository"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

type Firestore struct {
	projectID   string
	databaseID  string
	credentials string
}

func (c *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore project ID (in-memory store is used if empty)",
			Destination: &c.projectID,
			Category:    "Firestore",
			Sources:     cli.EnvVars("SANUVIA_FIRESTORE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Destination: &c.databaseID,
			Category:    "Firestore",
			Sources:     cli.EnvVars("SANUVIA_FIRESTORE_DATABASE_ID"),
			Value:       "(default)",
		},
		&cli.StringFlag{
			Name:        "firestore-credentials",
			Usage:       "Path to a service account JSON file (Application Default Credentials if empty)",
			Destination: &c.credentials,
			Category:    "Firestore",
			Sources:     cli.EnvVars("SANUVIA_FIRESTORE_CREDENTIALS"),
		},
	}
}

func (c Firestore) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project_id", c.projectID),
		slog.String("database_id", c.databaseID),
		slog.Bool("credentials", c.credentials != ""),
	)
}

func (c *Firestore) ClientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if c.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(c.credentials))
	}
	return opts
}

func (c *Firestore) Configure(ctx context.Context) (*repository.Firestore, error) {
	if !c.IsConfigured() {
		return nil, goerr.New("firestore-project-id is required", goerr.T(errs.TagValidation))
	}
	return repository.NewFirestore(ctx, c.projectID, c.databaseID, c.ClientOptions()...)
}

func (c *Firestore) ProjectID() string {
	return c.projectID
}

func (c *Firestore) DatabaseID() string {
	return c.databaseID
}

// IsConfigured returns true if Firestore is configured
func (c *Firestore) IsConfigured() bool {
	return c.projectID != ""
}
