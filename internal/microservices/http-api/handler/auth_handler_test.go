package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLogin_Success(t *testing.T) {
	s := newTestServer()
	user := &models.User{ID: aliceID, Username: "alice", Role: models.RoleUser}
	s.auth.On("Login", mock.Anything, "alice", "hunter22").Return("signed-token", user, nil)

	w := s.do("POST", "/api/auth/login", "", map[string]string{"username": "alice", "password": "hunter22"})

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(w)["data"].(map[string]any)
	assert.Equal(t, "signed-token", data["accessToken"])
	assert.Equal(t, "Bearer", data["tokenType"])
	assert.EqualValues(t, 3600, data["expiresIn"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := newTestServer()
	s.auth.On("Login", mock.Anything, "alice", "wrong").Return("", nil, service.ErrInvalidCredentials)

	w := s.do("POST", "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_InvalidJSON(t *testing.T) {
	s := newTestServer()

	w := s.do("POST", "/api/auth/login", "", "invalid json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	w := s.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	h := NewRouter(RouterConfig{
		Auth: s.auth,
		HealthChecks: map[string]HealthCheck{
			"store": func(context.Context) error { return errors.New("connection refused") },
		},
	})
	s.router = h
	w = s.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "connection refused", decode(w)["data"].(map[string]any)["store"])
}

func TestStatusFor(t *testing.T) {
	status, _ := statusFor(errors.Join(errors.New("ctx"), service.ErrStoreTimeout))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	status, _ = statusFor(service.ErrBroadcastFailure)
	assert.Equal(t, http.StatusInternalServerError, status)
}
