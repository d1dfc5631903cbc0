// Package server hosts the vault HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/docvault/docvault/internal/platform/config"
	"github.com/docvault/docvault/internal/platform/logging"
	"github.com/docvault/docvault/internal/platform/otel"
	"github.com/docvault/docvault/internal/services/vault/api/rest"
	"github.com/docvault/docvault/internal/services/vault/blob/fsblob"
	"github.com/docvault/docvault/internal/services/vault/identity"
	"github.com/docvault/docvault/internal/services/vault/mail"
	"github.com/docvault/docvault/internal/services/vault/service"
	vaultsqlite "github.com/docvault/docvault/internal/services/vault/storage/sqlite"
)

// serverEnv holds the environment configuration for the vault server.
type serverEnv struct {
	DBPath       string `env:"DOCVAULT_DB_PATH"`
	BlobDir      string `env:"DOCVAULT_BLOB_DIR"`
	BaseURL      string `env:"DOCVAULT_BASE_URL"`
	WebhookToken string `env:"DOCVAULT_WEBHOOK_TOKEN"`
}

// Server hosts the vault service: the JSON API plus the filesystem blob
// endpoints under one HTTP listener.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *vaultsqlite.Store
	dispatcher *mail.Dispatcher
	logger     *zap.Logger
	otelStop   func(context.Context) error
}

// New creates a configured vault server listening on the provided address.
func New(httpAddr string) (*Server, error) {
	logger := logging.New("vault")

	var envCfg serverEnv
	if err := config.ParseEnv(&envCfg); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", httpAddr, err)
	}
	store, err := openVaultStore(envCfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	identityCfg, err := identity.LoadConfigFromEnv(nil)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	blobDir := strings.TrimSpace(envCfg.BlobDir)
	if blobDir == "" {
		blobDir = filepath.Join("data", "blobs")
	}
	baseURL := strings.TrimSpace(envCfg.BaseURL)
	if baseURL == "" {
		baseURL = "http://" + listener.Addr().String()
	}
	blobs, err := fsblob.New(blobDir, baseURL, logger)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	dispatcher := mail.NewDispatcher(mail.LogSender{Logger: logger}, 0, logger)

	svc := service.New(service.Config{
		Stores: service.Stores{
			Users:     store,
			Teams:     store,
			Members:   store,
			Invites:   store,
			Documents: store,
			Versions:  store,
		},
		Blobs:  blobs,
		Emails: dispatcher,
		Logger: logger,
	})

	handler := rest.NewHandler(rest.Config{
		Service:      svc,
		IdentityCfg:  identityCfg,
		WebhookToken: strings.TrimSpace(envCfg.WebhookToken),
		Logger:       logger,
	})

	router := mux.NewRouter()
	router.PathPrefix("/blobs/").Handler(blobs.Handler())
	router.PathPrefix("/").Handler(handler.Router())

	return &Server{
		listener:   listener,
		httpServer: &http.Server{Handler: router},
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a vault server until the context ends.
func Run(ctx context.Context, httpAddr string) error {
	srv, err := New(httpAddr)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve starts the server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.closeStore()
	defer s.flushLogger()

	if stop, err := otel.Setup(serverCtx, "docvault"); err != nil {
		s.logger.Warn("tracing setup failed", zap.Error(err))
	} else if stop != nil {
		s.otelStop = stop
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.otelStop(shutdownCtx)
		}()
	}

	go s.dispatcher.Run(serverCtx)

	s.logger.Info("vault server listening", zap.String("addr", s.listener.Addr().String()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return handleErr(<-serveErr)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func (s *Server) closeStore() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close store", zap.Error(err))
		}
	}
}

func (s *Server) flushLogger() {
	_ = s.logger.Sync()
}

func openVaultStore(path string) (*vaultsqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "vault.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := vaultsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vault sqlite store: %w", err)
	}
	return store, nil
}
