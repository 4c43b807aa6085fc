package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/sanuvia/sanuvia/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

var (
	logFormats = map[string]logging.Format{
		"console": logging.FormatConsole,
		"json":    logging.FormatJSON,
	}
	logLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

// Logger configures the process-wide logger. Logs go to stderr by default
// so list and watch output on stdout stays machine readable.
type Logger struct {
	level      string
	format     string
	output     string
	quiet      bool
	stacktrace bool
}

func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Category:    "Logging",
			Aliases:     []string{"l"},
			Sources:     cli.EnvVars("SANUVIA_LOG_LEVEL"),
			Usage:       "Set log level [debug|info|warn|error]",
			Value:       "info",
			Destination: &x.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Category:    "Logging",
			Aliases:     []string{"f"},
			Sources:     cli.EnvVars("SANUVIA_LOG_FORMAT"),
			Usage:       "Set log format [console|json]",
			Value:       "console",
			Destination: &x.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Category:    "Logging",
			Aliases:     []string{"o"},
			Sources:     cli.EnvVars("SANUVIA_LOG_OUTPUT"),
			Usage:       "Set log output [stdout|stderr|<file path>]",
			Value:       "stderr",
			Destination: &x.output,
		},
		&cli.BoolFlag{
			Name:        "log-quiet",
			Category:    "Logging",
			Aliases:     []string{"q"},
			Usage:       "Quiet mode (no log output)",
			Sources:     cli.EnvVars("SANUVIA_LOG_QUIET"),
			Destination: &x.quiet,
		},
		&cli.BoolFlag{
			Name:        "log-stacktrace",
			Category:    "Logging",
			Usage:       "Show stacktrace of errors (console format only)",
			Sources:     cli.EnvVars("SANUVIA_LOG_STACKTRACE"),
			Destination: &x.stacktrace,
		},
	}
}

func (x Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
		slog.Bool("quiet", x.quiet),
	)
}

// Configure installs the default logger. The returned closer is never nil,
// even when an error is returned.
func (x *Logger) Configure() (func(), error) {
	closer := func() {}
	if x.quiet {
		logging.Quiet()
		return closer, nil
	}

	format, ok := logFormats[x.format]
	if !ok {
		return closer, goerr.New("invalid log format",
			goerr.V("format", x.format),
			goerr.T(errs.TagValidation))
	}

	level, ok := logLevels[x.level]
	if !ok {
		return closer, goerr.New("invalid log level",
			goerr.V("level", x.level),
			goerr.T(errs.TagValidation))
	}

	var output io.Writer
	switch x.output {
	case "stdout", "-":
		output = os.Stdout
	case "stderr", "":
		output = os.Stderr
	default:
		f, err := os.OpenFile(filepath.Clean(x.output), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			return closer, goerr.Wrap(err, "failed to open log file",
				goerr.TV(errs.FilePathKey, x.output))
		}
		output = f
		closer = func() {
			safe.Close(context.Background(), f)
		}
	}

	logging.SetDefault(logging.New(output, level, format, x.stacktrace))
	return closer, nil
}
