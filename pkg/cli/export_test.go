package cli

import (
	"context"
	"io"
	"time"

	"github.com/m-mizutani/fireconf"
	"github.com/sanuvia/sanuvia/pkg/cli/config"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/service/illness"
)

func DefineFirestoreIndexes(collection string, fields model.Fields) *fireconf.Config {
	return defineFirestoreIndexes(collection, fields)
}

func RunList(ctx context.Context, svc *illness.Service, w io.Writer, output string) error {
	return runList(ctx, svc, w, output)
}

func RunWatch(ctx context.Context, svc *illness.Service, w io.Writer, output string) error {
	return runWatch(ctx, svc, w, output)
}

func PrintRecords(w io.Writer, records []model.Record, output string, now time.Time) error {
	return printRecords(w, records, output, now)
}

func ServerURL(addr string) string {
	return serverURL(addr)
}

func SeedFromFile(ctx context.Context, w interfaces.DocumentWriter, objects interfaces.ObjectStore, cfg *config.Illness, path string) error {
	return seedFromFile(ctx, w, objects, cfg, path)
}

func RunMigrate(ctx context.Context, cfg *config.Firestore, illnessCfg *config.Illness, dryRun bool) error {
	return runMigrate(ctx, cfg, illnessCfg, dryRun)
}
