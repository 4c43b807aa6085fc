package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/cli/config"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	"github.com/sanuvia/sanuvia/pkg/service/illness"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const defaultListTimeout = 30 * time.Second

func cmdList() *cli.Command {
	var (
		firestoreCfg config.Firestore
		illnessCfg   config.Illness
		output       string
		timeout      time.Duration
	)

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Print the illnesses once, newest first",
		Flags: joinFlags(
			[]cli.Flag{
				outputFlag(&output),
				&cli.DurationFlag{
					Name:        "timeout",
					Usage:       "Give up waiting for the result after this duration",
					Value:       defaultListTimeout,
					Destination: &timeout,
				},
			},
			firestoreCfg.Flags(),
			illnessCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.From(ctx).Debug("list options", "firestore", firestoreCfg, "illness", illnessCfg)

			repo, closer, err := configureStore(ctx, &firestoreCfg)
			if err != nil {
				return err
			}
			defer closer()

			svc, err := illnessCfg.Configure(repo)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return runList(ctx, svc, os.Stdout, output)
		},
	}
}

func runList(ctx context.Context, svc *illness.Service, w io.Writer, output string) error {
	records, err := svc.FetchOnce(ctx).Wait(ctx)
	if err != nil {
		return goerr.Wrap(err, "no result before deadline", goerr.T(errs.TagTimeout))
	}
	if records == nil {
		return goerr.Wrap(errs.ErrUnavailable, "fetch failed", goerr.T(errs.TagUnavailable))
	}
	return printRecords(w, records, output, time.Now())
}
