package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/npezzotti/go-hangout/internal/config"
	"github.com/npezzotti/go-hangout/internal/hangout"
	"github.com/npezzotti/go-hangout/internal/store"
)

// HangoutApp is the HTTP surface in front of the protocol engine: the /ws
// upgrade endpoint plus a small read-only API for relationship and message
// state. Account signup and token issuance live in an external service; this
// app only validates the tokens it is handed.
type HangoutApp struct {
	log        *log.Logger
	store      store.HangoutStore
	mux        *http.Server
	hs         *hangout.HangoutServer
	signingKey []byte

	allowedOrigins []string
}

func NewHangoutApp(mux *http.ServeMux, logger *log.Logger, hs *hangout.HangoutServer, st store.HangoutStore, cfg *config.Config) *HangoutApp {
	s := &HangoutApp{
		log:        logger,
		store:      st,
		hs:         hs,
		signingKey: cfg.SigningKey,

		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.Handle("GET /api/hangouts", s.authMiddleware(s.getHangouts))
	mux.Handle("GET /api/unread", s.authMiddleware(s.getUnread))
	mux.Handle("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *HangoutApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *HangoutApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
