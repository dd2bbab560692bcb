package session_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/solterra-club/backoffice/internal/identity"
	"github.com/solterra-club/backoffice/internal/session"
	"github.com/solterra-club/backoffice/internal/shared"
	_ "github.com/solterra-club/backoffice/testing"
)

func newHandler(t *testing.T, policy session.Policy) (*session.Handler, *session.Engine) {
	t.Helper()
	engine, _ := newEngine(t, policy)
	csrf := shared.NewCSRFManager("test-csrf-secret")
	handler := session.NewHandler(nil, engine, csrf, "backoffice_session", false, time.Hour)
	return handler, engine
}

func mountRoutes(h *session.Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

// withSession mimics the session middleware for routes behind authentication.
func withSession(r *http.Request, sess *session.Session) *http.Request {
	return r.WithContext(session.ContextWithSession(r.Context(), sess))
}

type viewBody struct {
	Current       identity.Identity  `json:"current"`
	Original      *identity.Identity `json:"original"`
	Impersonating bool               `json:"impersonating"`
	CSRFToken     string             `json:"csrfToken"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewBody {
	t.Helper()
	var body viewBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandleLogin(t *testing.T) {
	handler, _ := newHandler(t, session.Policy{})
	router := mountRoutes(handler)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"manager@example.com","credential":"manager123"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeView(t, rec)
	require.Equal(t, identity.SeedManagerID, body.Current.ID)
	require.False(t, body.Impersonating)
	require.NotEmpty(t, body.CSRFToken)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "backoffice_session", cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
}

func TestHandleLoginFailuresAreIndistinguishable(t *testing.T) {
	handler, _ := newHandler(t, session.Policy{})
	router := mountRoutes(handler)

	responses := make([]string, 0, 2)
	for _, payload := range []string{
		`{"email":"manager@example.com","credential":"wrong"}`,
		`{"email":"ghost@example.com","credential":"manager123"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		responses = append(responses, rec.Body.String())
	}
	require.Equal(t, responses[0], responses[1])
}

func TestHandleLoginValidation(t *testing.T) {
	handler, _ := newHandler(t, session.Policy{})
	router := mountRoutes(handler)

	for _, payload := range []string{
		`{broken`,
		`{"email":"not-an-email","credential":"x"}`,
		`{"email":"manager@example.com"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
}

func TestHandleMe(t *testing.T) {
	handler, engine := newHandler(t, session.Policy{})
	router := mountRoutes(handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	sess := login(t, engine, "customer@example.com", "customer123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/me", nil), sess))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, identity.SeedCustomerID, decodeView(t, rec).Current.ID)
}

func TestHandleImpersonateFlow(t *testing.T) {
	handler, engine := newHandler(t, session.Policy{})
	router := mountRoutes(handler)

	sess := login(t, engine, "superadmin@example.com", "superadmin123")

	req := withSession(httptest.NewRequest(http.MethodPost, "/impersonate",
		strings.NewReader(`{"targetId":"`+identity.SeedCustomerID+`"}`)), sess)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeView(t, rec)
	require.True(t, body.Impersonating)
	require.Equal(t, identity.SeedCustomerID, body.Current.ID)
	require.Equal(t, identity.SeedSuperAdminID, body.Original.ID)

	req = withSession(httptest.NewRequest(http.MethodPost, "/impersonate/stop", nil), sess)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, decodeView(t, rec).Impersonating)
}

func TestHandleImpersonateErrors(t *testing.T) {
	handler, engine := newHandler(t, session.Policy{})
	router := mountRoutes(handler)

	// Anonymous callers are rejected outright.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/impersonate",
		strings.NewReader(`{"targetId":"usr-1001"}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	manager := login(t, engine, "manager@example.com", "manager123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/impersonate",
		strings.NewReader(`{"targetId":"usr-1001"}`)), manager))
	require.Equal(t, http.StatusForbidden, rec.Code)

	superAdmin := login(t, engine, "superadmin@example.com", "superadmin123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/impersonate",
		strings.NewReader(`{"targetId":"usr-9999"}`)), superAdmin))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleLogout(t *testing.T) {
	handler, engine := newHandler(t, session.Policy{})
	router := mountRoutes(handler)

	sess := login(t, engine, "customer@example.com", "customer123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/logout", nil), sess))

	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Empty(t, cookies[0].Value)
	require.Negative(t, cookies[0].MaxAge)

	// Logging out with no session still clears the cookie.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
