package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/cli/config"
	server "github.com/sanuvia/sanuvia/pkg/controller/http"
	"github.com/sanuvia/sanuvia/pkg/repository"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// serverURL turns a listen address into a URL for humans to open.
func serverURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		if strings.HasPrefix(addr, ":") {
			return fmt.Sprintf("http://localhost%s", addr)
		}
		return fmt.Sprintf("http://%s", addr)
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}

	return fmt.Sprintf("http://%s", net.JoinHostPort(host, port))
}

func cmdServe() *cli.Command {
	var (
		addr           string
		allowedOrigins []string
		seedFile       string
		sentryCfg      config.Sentry
		firestoreCfg   config.Firestore
		illnessCfg     config.Illness
	)

	flags := joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Aliases:     []string{"a"},
				Sources:     cli.EnvVars("SANUVIA_ADDR"),
				Usage:       "Listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.StringSliceFlag{
				Name:        "allowed-origin",
				Usage:       "Origin allowed to open the stream endpoint (same origin only if empty)",
				Category:    "Security",
				Sources:     cli.EnvVars("SANUVIA_ALLOWED_ORIGINS"),
				Destination: &allowedOrigins,
			},
			&cli.StringFlag{
				Name:        "seed",
				Usage:       "YAML file or gs:// object of illnesses loaded into the in-memory store at startup",
				Sources:     cli.EnvVars("SANUVIA_SEED"),
				Destination: &seedFile,
			},
		},
		sentryCfg.Flags(),
		firestoreCfg.Flags(),
		illnessCfg.Flags(),
	)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve the illnesses over HTTP and WebSocket",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := logging.From(ctx)
			logger.Info("starting server",
				"addr", addr,
				"url", serverURL(addr),
				"allowed_origins", allowedOrigins,
				"sentry", sentryCfg,
				"firestore", firestoreCfg,
				"illness", illnessCfg,
			)

			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			repo, closer, err := configureStore(ctx, &firestoreCfg)
			if err != nil {
				return err
			}
			defer closer()

			if seedFile != "" {
				if _, ok := repo.(*repository.Memory); !ok {
					return goerr.New("--seed is only available with the in-memory store")
				}
				objects, closeObjects, err := openObjects(ctx, &firestoreCfg, seedFile)
				if err != nil {
					return err
				}
				err = seedFromFile(ctx, repo, objects, &illnessCfg, seedFile)
				closeObjects()
				if err != nil {
					return err
				}
			}

			svc, err := illnessCfg.Configure(repo)
			if err != nil {
				return err
			}

			httpServer := http.Server{
				Addr:              addr,
				Handler:           server.New(svc, server.WithAllowedOrigins(allowedOrigins...)),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case err := <-errCh:
				if err != nil {
					return goerr.Wrap(err, "server stopped", goerr.V("addr", addr))
				}
				return nil
			case sig := <-sigCh:
				logger.Info("shutting down server", "signal", sig.String())
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(ctx)
			}
		},
	}
}
