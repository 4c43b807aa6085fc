package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/cli/config"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/repository"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/sanuvia/sanuvia/pkg/utils/ptr"
	"github.com/sanuvia/sanuvia/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, flag := range flags {
		result = append(result, flag...)
	}
	return result
}

func outputFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "output",
		Usage:       "Output format [text|json]",
		Sources:     cli.EnvVars("SANUVIA_OUTPUT"),
		Value:       outputText,
		Destination: dst,
		Validator: func(v string) error {
			if v != outputText && v != outputJSON {
				return goerr.New("invalid output format", goerr.V("output", v), goerr.T(errs.TagValidation))
			}
			return nil
		},
	}
}

type store interface {
	interfaces.DocumentStore
	interfaces.DocumentWriter
}

// configureStore opens Firestore, or an empty in-memory store when no
// project is configured. The returned closer is never nil.
func configureStore(ctx context.Context, cfg *config.Firestore) (store, func(), error) {
	if !cfg.IsConfigured() {
		logging.From(ctx).Warn("Firestore is not configured, using in-memory store; data is not persisted")
		return repository.NewMemory(), func() {}, nil
	}

	client, err := cfg.Configure(ctx)
	if err != nil {
		return nil, func() {}, err
	}
	return client, func() { safe.Close(ctx, client) }, nil
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, time.DateTime}

// age renders date relative to now, or "" if date is not a known layout.
func age(date string, now time.Time) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return humanize.RelTime(t, now, "ago", "from now")
		}
	}
	return ""
}

func printRecords(w io.Writer, records []model.Record, format string, now time.Time) error {
	switch format {
	case outputJSON:
		if err := json.NewEncoder(w).Encode(records); err != nil {
			return goerr.Wrap(err, "failed to encode records")
		}
		return nil

	default:
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "no illnesses")
			return err
		}
		for _, r := range records {
			date := ptr.DerefOr(r.Date, "-")
			line := fmt.Sprintf("%-12s %-16s %s", date, age(date, now), ptr.DerefOr(r.Title, "(untitled)"))
			if r.ImageURL != nil {
				line += " <" + *r.ImageURL + ">"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return goerr.Wrap(err, "failed to write record")
			}
		}
		return nil
	}
}
