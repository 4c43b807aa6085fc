package http

import (
	"context"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/service/illness"
	"github.com/sanuvia/sanuvia/pkg/utils/observable"
)

// IllnessUseCase is the part of illness.Service the server exposes.
type IllnessUseCase interface {
	FetchOnce(ctx context.Context) *observable.Value[[]model.Record]
	Subscribe(ctx context.Context, onUpdate func([]model.Record), onError func(error)) *illness.Subscription
}

var _ IllnessUseCase = &illness.Service{}

type Server struct {
	router         *chi.Mux
	allowedOrigins []string
}

type Options func(*Server)

// WithAllowedOrigins lets the given origins read the API from browsers and
// open the stream, in addition to same-origin requests.
func WithAllowedOrigins(origins ...string) Options {
	return func(s *Server) {
		s.allowedOrigins = append(s.allowedOrigins, origins...)
	}
}

func New(uc IllnessUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if len(s.allowedOrigins) > 0 {
		upgrader.CheckOrigin = s.checkOrigin
	}

	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)
	if len(s.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/illnesses", func(r chi.Router) {
		r.Get("/", listIllnessesHandler(uc))
		r.Get("/stream", illnessStreamHandler(uc, upgrader))
	})

	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	return slices.Contains(s.allowedOrigins, origin)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
