package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

// --- MOCK SERVICES ---

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*service.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Principal), args.Error(1)
}

func (m *MockAuthService) IssueToken(user *models.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

type MockVoteService struct {
	mock.Mock
}

func (m *MockVoteService) CastVote(ctx context.Context, userID string, target models.VoteTarget, kind models.VoteKind) (*service.VoteResult, error) {
	args := m.Called(ctx, userID, target, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VoteResult), args.Error(1)
}

func (m *MockVoteService) GetUserVotes(ctx context.Context, userID string, target models.VoteTarget) ([]models.Vote, error) {
	args := m.Called(ctx, userID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vote), args.Error(1)
}

type MockAcceptanceService struct {
	mock.Mock
}

func (m *MockAcceptanceService) SetAcceptance(ctx context.Context, userID, answerID string, accepted bool) (*models.Answer, error) {
	args := m.Called(ctx, userID, answerID, accepted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Answer), args.Error(1)
}

func (m *MockAcceptanceService) ToggleAcceptance(ctx context.Context, userID, answerID string) (*models.Answer, error) {
	args := m.Called(ctx, userID, answerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Answer), args.Error(1)
}

type MockAnswerService struct {
	mock.Mock
}

func (m *MockAnswerService) CreateAnswer(ctx context.Context, userID, questionID, content string) (*models.Answer, error) {
	args := m.Called(ctx, userID, questionID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Answer), args.Error(1)
}

func (m *MockAnswerService) UpdateAnswer(ctx context.Context, userID, answerID, content string) (*models.Answer, error) {
	args := m.Called(ctx, userID, answerID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Answer), args.Error(1)
}

func (m *MockAnswerService) DeleteAnswer(ctx context.Context, userID, answerID string) error {
	args := m.Called(ctx, userID, answerID)
	return args.Error(0)
}

type MockQuestionService struct {
	mock.Mock
}

func (m *MockQuestionService) ListQuestions(ctx context.Context, query service.QuestionQuery) (*service.QuestionPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QuestionPage), args.Error(1)
}

func (m *MockQuestionService) CreateQuestion(ctx context.Context, userID, title, content string) (*models.Question, error) {
	args := m.Called(ctx, userID, title, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionService) GetQuestion(ctx context.Context, viewerID, questionID string) (*models.Question, error) {
	args := m.Called(ctx, viewerID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionService) UpdateQuestion(ctx context.Context, userID, questionID, title, content string) (*models.Question, error) {
	args := m.Called(ctx, userID, questionID, title, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionService) DeleteQuestion(ctx context.Context, userID, questionID string) error {
	args := m.Called(ctx, userID, questionID)
	return args.Error(0)
}

// --- SETUP ---

const (
	aliceToken = "alice-token"
	aliceID    = "user-alice"
)

type testServer struct {
	router     *gin.Engine
	auth       *MockAuthService
	votes      *MockVoteService
	acceptance *MockAcceptanceService
	answers    *MockAnswerService
	questions  *MockQuestionService
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	s := &testServer{
		auth:       new(MockAuthService),
		votes:      new(MockVoteService),
		acceptance: new(MockAcceptanceService),
		answers:    new(MockAnswerService),
		questions:  new(MockQuestionService),
	}
	s.auth.On("Authenticate", mock.Anything, aliceToken).
		Return(&service.Principal{UserID: aliceID, Username: "alice", Role: models.RoleUser}, nil).Maybe()
	s.auth.On("Authenticate", mock.Anything, mock.Anything).
		Return(nil, service.ErrUnauthorized).Maybe()

	s.router = NewRouter(RouterConfig{
		Auth:       s.auth,
		Votes:      s.votes,
		Acceptance: s.acceptance,
		Answers:    s.answers,
		Questions:  s.questions,
		TokenTTL:   time.Hour,
		HealthChecks: map[string]HealthCheck{
			"store": func(context.Context) error { return nil },
		},
	})
	return s
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			json.NewEncoder(&buf).Encode(b)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	json.Unmarshal(w.Body.Bytes(), &out)
	return out
}
