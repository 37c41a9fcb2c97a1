package repository

import (
	"context"
	"testing"
	"time"

	"stackit/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startPostgres runs a throwaway Postgres in Docker. Skipped with -short or
// when no Docker daemon is reachable. Concurrent casts through the vote
// service run against the same image in service/vote_service_postgres_test.go.
func startPostgres(t *testing.T) *GormStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("stackit"),
		postgres.WithUsername("stackit"),
		postgres.WithPassword("stackit"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() { ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	store := NewGormStore(db, 5*time.Second)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgres_DuplicateVoteIsConflict(t *testing.T) {
	store := startPostgres(t)
	ctx := context.Background()

	var u models.User
	var q models.Question
	require.NoError(t, store.WithinTx(ctx, func(repo Repository) error {
		u = models.User{Username: "dup", Email: "dup@example.com", Password: "x", IsActive: true}
		if err := repo.CreateUser(ctx, &u); err != nil {
			return err
		}
		q = models.Question{Title: "Unique indexes", Content: "Partial or full?", AuthorID: u.ID}
		if err := repo.CreateQuestion(ctx, &q); err != nil {
			return err
		}
		return repo.CreateVote(ctx, &models.Vote{UserID: u.ID, Type: models.VoteUp, QuestionID: &q.ID})
	}))

	err := store.WithinTx(ctx, func(repo Repository) error {
		return repo.CreateVote(ctx, &models.Vote{UserID: u.ID, Type: models.VoteDown, QuestionID: &q.ID})
	})
	assert.ErrorIs(t, err, ErrConflict)
}
