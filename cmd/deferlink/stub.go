package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/deferlink/deferlink-go/model"
)

// stubServer serves canned attribution responses for local host-app
// development. It validates request shape and authorization but performs no
// matching.
type stubServer struct {
	logger    *slog.Logger
	clientKey string
	response  []byte
}

func newStubCmd() *cobra.Command {
	var (
		addr      string
		fixture   string
		clientKey string
	)

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Serve a local attribution stub endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			response := []byte(`{"matched":false}`)
			if fixture != "" {
				raw, err := os.ReadFile(fixture)
				if err != nil {
					return fmt.Errorf("read fixture: %w", err)
				}
				// The fixture must be a decodable result so the stub never
				// hands clients a body the SDK rejects.
				var result model.DeepLinkResult
				if err := json.Unmarshal(raw, &result); err != nil {
					return fmt.Errorf("fixture is not a valid result: %w", err)
				}
				response = raw
			}

			stub := &stubServer{
				logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "stub"),
				clientKey: clientKey,
				response:  response,
			}
			return stub.run(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "listen address")
	cmd.Flags().StringVar(&fixture, "fixture", "", "path to a JSON result served for every request")
	cmd.Flags().StringVar(&clientKey, "client-key", "", "require this bearer key on requests")
	return cmd
}

func (s *stubServer) run(ctx context.Context, addr string) error {
	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Post("/fingerprints/match", s.handleMatch)
	router.Post("/links/attribute", s.handleAttribute)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("stub server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-shutdown:
	case <-ctx.Done():
	}

	s.logger.Info("stub server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// authorized enforces the configured bearer key, if any.
func (s *stubServer) authorized(w http.ResponseWriter, r *http.Request) bool {
	if s.clientKey == "" {
		return true
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token != s.clientKey {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unknown client key"}`))
		return false
	}
	return true
}

func (s *stubServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}

	var body struct {
		Fingerprint json.RawMessage `json:"fingerprint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Fingerprint) == 0 {
		s.badRequest(w, "body must contain a fingerprint object")
		return
	}

	s.logger.Info("match request",
		"request_id", r.Header.Get("X-Request-Id"),
		"user_agent", r.UserAgent(),
	)
	s.respond(w)
}

func (s *stubServer) handleAttribute(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}

	var body struct {
		URL      string `json:"url"`
		Platform string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		s.badRequest(w, "body must contain a url")
		return
	}

	s.logger.Info("attribute request",
		"url", body.URL,
		"platform", body.Platform,
		"request_id", r.Header.Get("X-Request-Id"),
	)
	s.respond(w)
}

func (s *stubServer) respond(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.response)
}

func (s *stubServer) badRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
