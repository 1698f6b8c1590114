package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"authbridge/internal/auth/models"
	"authbridge/internal/auth/provider"
	"authbridge/internal/platform/middleware"
)

// Service is the subset of the facade the HTTP layer drives.
type Service interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	CreateUser(ctx context.Context, email, password string) (*models.User, error)
	EmailVerification(ctx context.Context) error
	LogIn(ctx context.Context, email, password string) (*models.User, error)
	LogOut(ctx context.Context) error
	PasswordReset(ctx context.Context, email string) error
}

// Handler exposes the auth facade over HTTP for a single-principal gateway.
type Handler struct {
	auth           Service
	logger         *slog.Logger
	requestTimeout time.Duration
}

// New creates a new auth Handler.
func New(auth Service, logger *slog.Logger, requestTimeout time.Duration) *Handler {
	return &Handler{
		auth:           auth,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	authRouter := chi.NewRouter()
	authRouter.Use(middleware.Recovery(h.logger))
	authRouter.Use(middleware.RequestID)
	authRouter.Use(middleware.Logger(h.logger))
	if h.requestTimeout > 0 {
		authRouter.Use(chimw.Timeout(h.requestTimeout))
	}
	authRouter.Post("/auth/users", h.handleCreateUser)
	authRouter.Post("/auth/login", h.handleLogIn)
	authRouter.Post("/auth/logout", h.handleLogOut)
	authRouter.Get("/auth/me", h.handleCurrentUser)
	authRouter.Post("/auth/email-verification", h.handleEmailVerification)
	authRouter.Post("/auth/password-reset", h.handlePasswordReset)

	r.Mount("/", authRouter)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.auth.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.auth.LogIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.LogOut(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleEmailVerification(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.EmailVerification(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.PasswordReset(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", middleware.GetRequestID(r.Context()),
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:            "bad_request",
			ErrorDescription: "invalid request body",
		})
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := toResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "auth request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}
	writeJSON(w, status, body)
}

// toResponse maps a facade error to a status and a user-facing body.
// Native provider messages never reach the client.
func toResponse(err error) (int, errorResponse) {
	if provider.IsUnimplemented(err) {
		return http.StatusNotImplemented, errorResponse{
			Error:            "unimplemented",
			ErrorDescription: "This operation is not supported by the configured provider.",
		}
	}
	kind := provider.KindOf(err)
	resp := errorResponse{Error: string(kind), ErrorDescription: messages[kind]}
	switch kind {
	case provider.KindEmailAlreadyInUse:
		return http.StatusConflict, resp
	case provider.KindWeakPassword:
		return http.StatusUnprocessableEntity, resp
	case provider.KindInvalidEmail:
		return http.StatusBadRequest, resp
	case provider.KindUserNotFound:
		return http.StatusNotFound, resp
	case provider.KindWrongPassword, provider.KindUserNotLoggedIn:
		return http.StatusUnauthorized, resp
	default:
		return http.StatusBadGateway, resp
	}
}

var messages = map[provider.Kind]string{
	provider.KindUserNotFound:      "No account exists for this email.",
	provider.KindWrongPassword:     "The password is incorrect.",
	provider.KindWeakPassword:      "The password is too weak.",
	provider.KindEmailAlreadyInUse: "An account already exists for this email.",
	provider.KindInvalidEmail:      "The email address is not valid.",
	provider.KindGeneric:           "Something went wrong. Please try again.",
	provider.KindUserNotLoggedIn:   "You need to log in first.",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
