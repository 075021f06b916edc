package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guarded := TokenMiddleware("secret-token")(next)

	req := httptest.NewRequest(http.MethodGet, "/suggestions", nil)
	rr := httptest.NewRecorder()
	guarded.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "missing header")

	req = httptest.NewRequest(http.MethodGet, "/suggestions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr = httptest.NewRecorder()
	guarded.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "wrong token")

	req = httptest.NewRequest(http.MethodGet, "/suggestions", nil)
	req.Header.Set("Authorization", "secret-token")
	rr = httptest.NewRecorder()
	guarded.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "missing bearer prefix")

	req = httptest.NewRequest(http.MethodGet, "/suggestions", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rr = httptest.NewRecorder()
	guarded.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTokenMiddlewareDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	open := TokenMiddleware("")(next)

	req := httptest.NewRequest(http.MethodGet, "/suggestions", nil)
	rr := httptest.NewRecorder()
	open.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
