package cli_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sanuvia/sanuvia/pkg/cli"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
)

func TestRun(t *testing.T) {
	orig := logging.Default()
	t.Cleanup(func() { logging.SetDefault(orig) })

	t.Run("invalid layout is rejected", func(t *testing.T) {
		t.Setenv("SANUVIA_FIRESTORE_PROJECT_ID", "")
		t.Setenv("GOOGLE_CLOUD_PROJECT", "")
		err := cli.Run(t.Context(), []string{"sanuvia", "--log-quiet", "list", "--layout", "v9"})
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("invalid layout")
	})

	t.Run("invalid log level is rejected", func(t *testing.T) {
		err := cli.Run(t.Context(), []string{"sanuvia", "--log-level", "loud", "list"})
		gt.Error(t, err)
	})

	t.Run("seed requires a file", func(t *testing.T) {
		t.Setenv("SANUVIA_FIRESTORE_PROJECT_ID", "")
		t.Setenv("GOOGLE_CLOUD_PROJECT", "")
		err := cli.Run(t.Context(), []string{"sanuvia", "--log-quiet", "seed"})
		gt.Error(t, err)
	})
}
