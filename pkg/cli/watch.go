package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/cli/config"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/service/illness"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdWatch() *cli.Command {
	var (
		firestoreCfg config.Firestore
		illnessCfg   config.Illness
		output       string
	)

	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Print every change of the illnesses until interrupted",
		Flags: joinFlags(
			[]cli.Flag{outputFlag(&output)},
			firestoreCfg.Flags(),
			illnessCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, closer, err := configureStore(ctx, &firestoreCfg)
			if err != nil {
				return err
			}
			defer closer()

			svc, err := illnessCfg.Configure(repo)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, svc, os.Stdout, output)
		},
	}
}

// runWatch prints snapshots until ctx is done, which is not an error, or
// the subscription fails.
func runWatch(ctx context.Context, svc *illness.Service, w io.Writer, output string) error {
	logger := logging.From(ctx)
	failed := make(chan error, 1)

	var n int
	sub := svc.Subscribe(ctx,
		func(records []model.Record) {
			n++
			if output == outputText {
				if _, err := fmt.Fprintf(w, "--- snapshot %d: %d illnesses ---\n", n, len(records)); err != nil {
					logger.Warn("failed to write snapshot header", logging.ErrAttr(err))
				}
			}
			if err := printRecords(w, records, output, time.Now()); err != nil {
				logger.Warn("failed to print snapshot", logging.ErrAttr(err))
			}
		},
		func(err error) {
			failed <- err
		},
	)
	defer sub.Cancel()

	logger.Info("watching illnesses", "query", svc.Query())

	select {
	case <-ctx.Done():
		logger.Info("stop watching")
		return nil
	case err := <-failed:
		return goerr.Wrap(err, "subscription failed")
	}
}
