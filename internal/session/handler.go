package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/solterra-club/backoffice/internal/identity"
	"github.com/solterra-club/backoffice/internal/shared"
)

// Handler wires the JSON endpoints for authentication and impersonation.
type Handler struct {
	logger     *slog.Logger
	engine     *Engine
	csrf       *shared.CSRFManager
	validator  *validator.Validate
	cookieName string
	secure     bool
	ttl        time.Duration
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, engine *Engine, csrf *shared.CSRFManager, cookieName string, secure bool, ttl time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:     logger,
		engine:     engine,
		csrf:       csrf,
		validator:  validator.New(),
		cookieName: cookieName,
		secure:     secure,
		ttl:        ttl,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
	r.Post("/impersonate", h.handleImpersonate)
	r.Post("/impersonate/stop", h.handleStopImpersonation)
}

type loginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Credential string `json:"credential" validate:"required"`
}

type impersonateRequest struct {
	TargetID string `json:"targetId" validate:"required"`
}

type sessionView struct {
	Current       identity.Identity  `json:"current"`
	Original      *identity.Identity `json:"original,omitempty"`
	Impersonating bool               `json:"impersonating"`
	CSRFToken     string             `json:"csrfToken,omitempty"`
}

func (h *Handler) view(sess *Session) sessionView {
	view := sessionView{
		Current:       sess.Current,
		Original:      sess.Original,
		Impersonating: sess.Impersonating(),
	}
	if h.csrf != nil {
		view.CSRFToken = h.csrf.TokenFor(sess.ID)
	}
	return view
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "email and credential are required")
		return
	}

	sess, err := h.engine.Login(r.Context(), req.Email, req.Credential)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			// Same message for unknown email and wrong credential so the
			// directory contents never leak.
			shared.WriteError(w, http.StatusUnauthorized, "invalid email or credential")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(h.ttl),
	})
	shared.WriteJSON(w, http.StatusOK, h.view(sess))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess != nil {
		h.engine.Logout(r.Context(), sess)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		shared.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	shared.WriteJSON(w, http.StatusOK, h.view(sess))
}

func (h *Handler) handleImpersonate(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		shared.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req impersonateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "targetId is required")
		return
	}

	if err := h.engine.StartImpersonation(r.Context(), sess, req.TargetID); err != nil {
		switch {
		case errors.Is(err, shared.ErrUnauthorized):
			shared.WriteError(w, http.StatusForbidden, "impersonation not allowed")
		case errors.Is(err, shared.ErrNotFound):
			shared.WriteError(w, http.StatusNotFound, "unknown identity")
		default:
			h.logger.Error("start impersonation", slog.Any("error", err))
			shared.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	shared.WriteJSON(w, http.StatusOK, h.view(sess))
}

func (h *Handler) handleStopImpersonation(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		shared.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.engine.StopImpersonation(r.Context(), sess); err != nil {
		h.logger.Error("stop impersonation", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	shared.WriteJSON(w, http.StatusOK, h.view(sess))
}
