package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/adapter/storage"
	"github.com/sanuvia/sanuvia/pkg/cli/config"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/sanuvia/sanuvia/pkg/utils/safe"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// seedEntry is one illness in a seed file. Omitted fields are not written.
type seedEntry struct {
	ID          string  `yaml:"id"`
	Title       *string `yaml:"title"`
	Description *string `yaml:"description"`
	Date        *string `yaml:"date"`
	ImageURL    *string `yaml:"imageUrl"`
}

func (x seedEntry) record() model.Record {
	return model.Record{
		Title:       x.Title,
		Description: x.Description,
		Date:        x.Date,
		ImageURL:    x.ImageURL,
	}
}

// readSeed reads a local file, or a gs:// object through objects.
func readSeed(ctx context.Context, objects interfaces.ObjectStore, path string) ([]byte, error) {
	if !storage.IsURL(path) {
		raw, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read seed file", goerr.TV(errs.FilePathKey, path))
		}
		return raw, nil
	}

	if objects == nil {
		return nil, goerr.New("no object store for seed URL", goerr.TV(errs.FilePathKey, path))
	}
	bucket, object, err := storage.ParseURL(path)
	if err != nil {
		return nil, err
	}

	rc, err := objects.GetObject(ctx, bucket, object)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, rc)

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed object", goerr.TV(errs.FilePathKey, path))
	}
	return raw, nil
}

func loadSeed(ctx context.Context, objects interfaces.ObjectStore, path string) ([]seedEntry, error) {
	raw, err := readSeed(ctx, objects, path)
	if err != nil {
		return nil, err
	}

	var entries []seedEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, goerr.Wrap(err, "failed to parse seed file",
			goerr.TV(errs.FilePathKey, path),
			goerr.T(errs.TagInvalidRequest))
	}
	return entries, nil
}

// openObjects returns a Cloud Storage client when path is a gs:// URL, and
// nil otherwise. The returned closer is never nil.
func openObjects(ctx context.Context, cfg *config.Firestore, path string) (interfaces.ObjectStore, func(), error) {
	if !storage.IsURL(path) {
		return nil, func() {}, nil
	}
	client, err := storage.New(ctx, cfg.ClientOptions()...)
	if err != nil {
		return nil, func() {}, err
	}
	return client, func() { client.Close(ctx) }, nil
}

// writeSeed stores entries with the given field layout and returns the
// document IDs in input order.
func writeSeed(ctx context.Context, w interfaces.DocumentWriter, collection string, fields model.Fields, entries []seedEntry) ([]string, error) {
	ids := make([]string, 0, len(entries))
	for i, entry := range entries {
		id, err := w.Put(ctx, collection, entry.ID, fields.Data(entry.record()))
		if err != nil {
			return ids, goerr.Wrap(err, "failed to write illness",
				goerr.V("index", i),
				goerr.TV(errs.DocumentIDKey, entry.ID))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedFromFile(ctx context.Context, w interfaces.DocumentWriter, objects interfaces.ObjectStore, cfg *config.Illness, path string) error {
	collection, err := cfg.Collection()
	if err != nil {
		return err
	}
	fields, err := cfg.Fields()
	if err != nil {
		return err
	}

	entries, err := loadSeed(ctx, objects, path)
	if err != nil {
		return err
	}

	ids, err := writeSeed(ctx, w, collection, fields, entries)
	if err != nil {
		return err
	}

	logging.From(ctx).Info("seeded illnesses", "collection", collection, "count", len(ids))
	return nil
}

func cmdSeed() *cli.Command {
	var (
		firestoreCfg config.Firestore
		illnessCfg   config.Illness
	)

	return &cli.Command{
		Name:      "seed",
		Usage:     "Write illnesses from a YAML file or gs:// object",
		ArgsUsage: "<file.yaml|gs://bucket/object>",
		Flags:     joinFlags(firestoreCfg.Flags(), illnessCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("exactly one seed file is required", goerr.T(errs.TagValidation))
			}

			path := c.Args().First()

			repo, closer, err := configureStore(ctx, &firestoreCfg)
			if err != nil {
				return err
			}
			defer closer()

			objects, closeObjects, err := openObjects(ctx, &firestoreCfg, path)
			if err != nil {
				return err
			}
			defer closeObjects()

			return seedFromFile(ctx, repo, objects, &illnessCfg, path)
		},
	}
}
