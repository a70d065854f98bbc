package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canopy/internal/auth"
	"canopy/internal/domain"
	"canopy/internal/httputil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubVerifier accepts exactly one token
type stubVerifier struct {
	token  string
	userID string
}

func (s *stubVerifier) VerifyToken(token string) (*auth.SupabaseClaims, error) {
	if token != s.token {
		return nil, domain.ErrUnauthorized
	}
	claims := &auth.SupabaseClaims{Role: "authenticated"}
	claims.Subject = s.userID
	return claims, nil
}

func (s *stubVerifier) Close() error { return nil }

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, httputil.GetUserID(r))
	})
}

func TestAuthMiddleware(t *testing.T) {
	verifier := &stubVerifier{token: "good", userID: "user-1"}

	tests := []struct {
		name       string
		verifier   auth.JWTVerifier
		devUser    string
		method     string
		target     string
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "bearer header", verifier: verifier, target: "/api/trash", header: "Bearer good", wantStatus: http.StatusOK, wantUser: "user-1"},
		{name: "lowercase scheme", verifier: verifier, target: "/api/trash", header: "bearer good", wantStatus: http.StatusOK, wantUser: "user-1"},
		{name: "query token", verifier: verifier, target: "/api/notifications?access_token=good", wantStatus: http.StatusOK, wantUser: "user-1"},
		{name: "bad token", verifier: verifier, target: "/api/trash", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", verifier: verifier, target: "/api/trash", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "missing token", verifier: verifier, target: "/api/trash", wantStatus: http.StatusUnauthorized},
		{name: "dev user fallback", devUser: "dev", target: "/api/trash", wantStatus: http.StatusOK, wantUser: "dev"},
		{name: "token without verifier", devUser: "dev", target: "/api/trash", header: "Bearer good", wantStatus: http.StatusUnauthorized},
		{name: "public health", target: "/health", wantStatus: http.StatusOK},
		{name: "preflight", method: http.MethodOptions, target: "/api/trash", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(tt.verifier, tt.devUser, testLogger())(echoUser()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantUser, rec.Body.String())
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	h := Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestLogger_KeepsFlusher(t *testing.T) {
	var flushable bool
	h := RequestLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flushable = w.(http.Flusher)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, flushable)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
