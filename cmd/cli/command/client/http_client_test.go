package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stackit/internal/microservices/http-api/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_CastVote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/votes", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req dto.CastVoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "q1", req.QuestionID)
		assert.Equal(t, "UP", req.Type)

		w.Write([]byte(`{"success":true,"voteCount":4,"userVote":"UP"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	c.SetToken("tok")
	resp, err := c.CastVote(&dto.CastVoteRequest{QuestionID: "q1", Type: "UP"})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.VoteCount)
	require.NotNil(t, resp.UserVote)
	assert.Equal(t, "UP", *resp.UserVote)
}

func TestHTTPClient_Accept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/answers/a1/accept", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"answerId":"a1","questionId":"q1","isAccepted":true},"message":"Answer accepted"}`))
	}))
	defer srv.Close()

	resp, err := NewHTTPClient(srv.URL).Accept("a1")
	require.NoError(t, err)
	assert.True(t, resp.IsAccepted)
	assert.Equal(t, "q1", resp.QuestionID)
}

func TestHTTPClient_ErrorReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success":false,"error":"not allowed"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Unaccept("a1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "not allowed", apiErr.Message)
}
