package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"stackit/internal/microservices/events"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNotifier mocks the Notifier interface
type MockNotifier struct {
	mock.Mock
	mu     sync.Mutex
	events []events.Event
}

func (m *MockNotifier) Notify(ctx context.Context, event events.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockNotifier) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.events...)
}

func newNotifier() *MockNotifier {
	n := new(MockNotifier)
	n.On("Notify", mock.Anything, mock.Anything).Return(nil)
	return n
}

type fixture struct {
	t     testing.TB
	ctx   context.Context
	store *repository.MemoryStore
}

func newFixture(t testing.TB) *fixture {
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		store: repository.NewMemoryStore(2 * time.Second),
	}
}

func (f *fixture) user(name, role string) *models.User {
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x", Role: role, IsActive: true}
	require.NoError(f.t, f.store.WithinTx(f.ctx, func(repo repository.Repository) error {
		return repo.CreateUser(f.ctx, u)
	}))
	return u
}

func (f *fixture) question(authorID string) *models.Question {
	q := &models.Question{Title: "How do I lock a row?", Content: strings.Repeat("body ", 10), AuthorID: authorID}
	require.NoError(f.t, f.store.WithinTx(f.ctx, func(repo repository.Repository) error {
		return repo.CreateQuestion(f.ctx, q)
	}))
	return q
}

func (f *fixture) answer(questionID, authorID string) *models.Answer {
	a := &models.Answer{QuestionID: questionID, AuthorID: authorID, Content: strings.Repeat("answer ", 5)}
	require.NoError(f.t, f.store.WithinTx(f.ctx, func(repo repository.Repository) error {
		return repo.CreateAnswer(f.ctx, a)
	}))
	return a
}

func (f *fixture) getQuestion(id string) *models.Question {
	var q *models.Question
	require.NoError(f.t, f.store.View(f.ctx, func(repo repository.Repository) error {
		var err error
		q, err = repo.GetQuestion(f.ctx, id)
		return err
	}))
	return q
}

func (f *fixture) getAnswer(id string) *models.Answer {
	var a *models.Answer
	require.NoError(f.t, f.store.View(f.ctx, func(repo repository.Repository) error {
		var err error
		a, err = repo.GetAnswer(f.ctx, id)
		return err
	}))
	return a
}

func (f *fixture) votes(target models.VoteTarget) []models.Vote {
	var votes []models.Vote
	require.NoError(f.t, f.store.View(f.ctx, func(repo repository.Repository) error {
		var err error
		votes, err = repo.ListVotes(f.ctx, target)
		return err
	}))
	return votes
}
