// Package rest exposes the vault operations over an HTTP/JSON surface.
package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/docvault/docvault/internal/services/vault/identity"
	"github.com/docvault/docvault/internal/services/vault/service"
	"github.com/docvault/docvault/internal/services/vault/user"
)

type contextKey string

const claimContextKey contextKey = "identity-claim"

// Handler routes HTTP requests to the vault service.
type Handler struct {
	svc          *service.Service
	identityCfg  identity.Config
	webhookToken string
	logger       *zap.Logger
}

// Config carries the handler dependencies.
type Config struct {
	Service     *service.Service
	IdentityCfg identity.Config
	// WebhookToken, when set, must match the X-Webhook-Token header on
	// identity webhook deliveries.
	WebhookToken string
	Logger       *zap.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		svc:          cfg.Service,
		identityCfg:  cfg.IdentityCfg,
		webhookToken: cfg.WebhookToken,
		logger:       cfg.Logger,
	}
}

// Router builds the route table with logging, tracing, and claim middleware.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(h.requestLogging, h.tracing)

	router.HandleFunc("/up", h.handleUp).Methods(http.MethodGet)
	router.HandleFunc("/webhooks/identity", h.handleIdentityWebhook).Methods(http.MethodPost)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(h.bearerClaim)

	api.HandleFunc("/users/ensure", h.handleEnsureUser).Methods(http.MethodPost)
	api.HandleFunc("/users/me", h.handleCurrentUser).Methods(http.MethodGet)

	api.HandleFunc("/teams", h.handleListTeams).Methods(http.MethodGet)
	api.HandleFunc("/teams", h.handleCreateTeam).Methods(http.MethodPost)
	api.HandleFunc("/teams/{teamID}", h.handleGetTeam).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamID}", h.handleDeleteTeam).Methods(http.MethodDelete)
	api.HandleFunc("/teams/{teamID}/members", h.handleGetMembers).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamID}/members", h.handleAddMember).Methods(http.MethodPost)
	api.HandleFunc("/teams/{teamID}/members/{memberID}", h.handleUpdateMemberRole).Methods(http.MethodPatch)
	api.HandleFunc("/teams/{teamID}/members/{memberID}", h.handleRemoveMember).Methods(http.MethodDelete)
	api.HandleFunc("/teams/{teamID}/invites", h.handleListInvites).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamID}/invites/{inviteID}", h.handleCancelInvite).Methods(http.MethodDelete)
	api.HandleFunc("/teams/{teamID}/documents", h.handleListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/teams/{teamID}/documents", h.handleCreateDocument).Methods(http.MethodPost)

	api.HandleFunc("/documents/{documentID}", h.handleGetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{documentID}", h.handleRenameDocument).Methods(http.MethodPatch)
	api.HandleFunc("/documents/{documentID}", h.handleDeleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{documentID}/versions", h.handleListVersions).Methods(http.MethodGet)
	api.HandleFunc("/documents/{documentID}/versions", h.handleCreateVersion).Methods(http.MethodPost)

	api.HandleFunc("/uploads", h.handleRequestUpload).Methods(http.MethodPost)
	api.HandleFunc("/downloads/{objectID}", h.handleResolveDownload).Methods(http.MethodGet)

	return router
}

func (h *Handler) handleUp(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// requestLogging logs method, path, and duration for every request.
func (h *Handler) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// tracing opens a span per request when a tracer provider is installed.
func (h *Handler) tracing(next http.Handler) http.Handler {
	tracer := otel.Tracer("docvault/api/rest")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerClaim verifies the Authorization header and stores the claim in the
// request context. Requests without a header pass through with an empty
// claim; operations that need identity fail later with UNAUTHENTICATED.
func (h *Handler) bearerClaim(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			h.writeError(w, unauthenticatedError("authorization header must use the Bearer scheme"))
			return
		}
		claim, err := identity.VerifyToken(token, h.identityCfg)
		if err != nil {
			h.writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), claimContextKey, claim)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimFrom returns the verified claim for the request, zero when absent.
func claimFrom(r *http.Request) identity.Claim {
	claim, _ := r.Context().Value(claimContextKey).(identity.Claim)
	return claim
}

// requireUser resolves the caller's provisioned user record.
func (h *Handler) requireUser(r *http.Request) (user.User, error) {
	return h.svc.ResolveCurrentUser(r.Context(), claimFrom(r))
}
