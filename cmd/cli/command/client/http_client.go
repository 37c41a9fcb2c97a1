package client

// http_client.go = HTTP side of the stackit CLI.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"stackit/internal/microservices/http-api/dto"
	"stackit/internal/microservices/http-api/models"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// constructor for HTTP client
func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

func (c *HTTPClient) Login(request *dto.LoginRequest) (*dto.LoginResponse, error) {
	var result dto.LoginResponse
	if err := c.do("POST", "/api/auth/login", request, &dto.Response{Data: &result}); err != nil {
		return nil, err
	}
	return &result, nil
}

// CastVote casts UP or DOWN on a question or an answer.
func (c *HTTPClient) CastVote(request *dto.CastVoteRequest) (*dto.CastVoteResponse, error) {
	var result dto.CastVoteResponse
	if err := c.do("POST", "/api/votes", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Accept toggles acceptance of an answer.
func (c *HTTPClient) Accept(answerID string) (*dto.AcceptanceResponse, error) {
	var result dto.AcceptanceResponse
	if err := c.do("POST", "/api/answers/"+answerID+"/accept", nil, &dto.Response{Data: &result}); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Unaccept(answerID string) (*dto.AcceptanceResponse, error) {
	var result dto.AcceptanceResponse
	if err := c.do("DELETE", "/api/answers/"+answerID+"/accept", nil, &dto.Response{Data: &result}); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) GetQuestion(questionID string) (*models.Question, error) {
	var result models.Question
	if err := c.do("GET", "/api/questions/"+questionID, nil, &dto.Response{Data: &result}); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // Ensure the response body is closed

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure dto.Response
		json.NewDecoder(resp.Body).Decode(&failure)
		return &APIError{StatusCode: resp.StatusCode, Message: failure.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
