package database

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"stackit/internal/microservices/http-api/middleware/auth"
	"stackit/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(time.Second)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	first, err := Seed(ctx, store, log)
	require.NoError(t, err)
	assert.Len(t, first.Users, len(demoUsers))
	assert.Len(t, first.Questions, len(demoQuestions))

	second, err := Seed(ctx, store, log)
	require.NoError(t, err)
	assert.Len(t, second.Users, len(demoUsers))
	assert.Empty(t, second.Questions)
	assert.Equal(t, first.Users[0].ID, second.Users[0].ID)

	err = store.View(ctx, func(repo repository.Repository) error {
		u, err := repo.FindUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, u.IsActive)
		assert.NoError(t, auth.VerifyPassword(u.Password, DemoPassword))

		q, err := repo.GetQuestionDetail(ctx, first.Questions[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 2, q.AnswerCount)
		assert.Len(t, q.Answers, 2)
		return nil
	})
	require.NoError(t, err)
}
