package cli

import (
	"context"

	"github.com/sanuvia/sanuvia/pkg/cli/config"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger
	var closer func()
	app := &cli.Command{
		Name:  "sanuvia",
		Usage: "Read and watch the childhood illness collection",
		Flags: loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			closer = f
			if err != nil {
				return ctx, err
			}

			logging.Default().Debug("base options", "logger", loggerCfg)
			return logging.With(ctx, logging.Default()), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdList(),
			cmdWatch(),
			cmdServe(),
			cmdSeed(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", logging.ErrAttr(err))
		return err
	}

	return nil
}
