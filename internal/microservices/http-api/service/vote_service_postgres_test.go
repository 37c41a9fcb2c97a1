package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stackit/internal/microservices/events"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/repository"
	"stackit/internal/microservices/http-api/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startPostgres runs a throwaway Postgres in Docker with a pool wide enough
// for every caster to hold its own transaction. Skipped with -short or when
// no Docker daemon is reachable.
func startPostgres(t *testing.T) *repository.GormStore {
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
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(64)
	require.NoError(t, db.AutoMigrate(models.All()...))

	store := repository.NewGormStore(db, 10*time.Second)
	t.Cleanup(func() { store.Close() })
	return store
}

type countingNotifier struct {
	voteUpdates atomic.Int64
}

func (n *countingNotifier) Notify(ctx context.Context, ev events.Event) error {
	if ev.Type == events.VoteUpdate {
		n.voteUpdates.Add(1)
	}
	return nil
}

// seedThread creates an author, one question with one answer, and n voters.
func seedThread(t *testing.T, store repository.Store, n int) (*models.Question, *models.Answer, []*models.User) {
	t.Helper()
	ctx := context.Background()
	author := &models.User{Username: "author", Email: "author@example.com", Password: "x", IsActive: true}
	q := &models.Question{Title: "Row locks in Postgres", Content: "How does SELECT ... FOR UPDATE behave?"}
	a := &models.Answer{Content: "It blocks other lockers until commit."}
	voters := make([]*models.User, n)

	require.NoError(t, store.WithinTx(ctx, func(repo repository.Repository) error {
		if err := repo.CreateUser(ctx, author); err != nil {
			return err
		}
		for i := range voters {
			name := fmt.Sprintf("voter%02d", i)
			voters[i] = &models.User{Username: name, Email: name + "@example.com", Password: "x", IsActive: true}
			if err := repo.CreateUser(ctx, voters[i]); err != nil {
				return err
			}
		}
		q.AuthorID = author.ID
		if err := repo.CreateQuestion(ctx, q); err != nil {
			return err
		}
		a.QuestionID, a.AuthorID = q.ID, author.ID
		return repo.CreateAnswer(ctx, a)
	}))
	return q, a, voters
}

// assertLedgerConsistent checks the cached vote_count against the vote rows
// and that nobody holds two votes on the target. It returns the count.
func assertLedgerConsistent(t *testing.T, store repository.Store, target models.VoteTarget) int {
	t.Helper()
	ctx := context.Background()
	var cached, net int
	require.NoError(t, store.View(ctx, func(repo repository.Repository) error {
		votes, err := repo.ListVotes(ctx, target)
		if err != nil {
			return err
		}
		perUser := map[string]int{}
		for _, v := range votes {
			perUser[v.UserID]++
		}
		for user, n := range perUser {
			assert.Equal(t, 1, n, "user %s has %d votes on %s", user, n, target.ID())
		}
		net = models.NetVotes(votes)

		if target.IsQuestion() {
			q, err := repo.GetQuestion(ctx, target.QuestionID)
			if err != nil {
				return err
			}
			cached = q.VoteCount
			return nil
		}
		a, err := repo.GetAnswer(ctx, target.AnswerID)
		if err != nil {
			return err
		}
		cached = a.VoteCount
		return nil
	}))
	assert.Equal(t, net, cached, "vote_count on %s must equal #UP - #DOWN", target.ID())
	return cached
}

func TestCastVote_Postgres_ConcurrentDistinctVoters(t *testing.T) {
	store := startPostgres(t)
	q, a, voters := seedThread(t, store, 24)
	notifier := &countingNotifier{}
	svc := service.NewVoteService(store, notifier, 5)
	ctx := context.Background()

	questionTarget := models.VoteTarget{QuestionID: q.ID}
	answerTarget := models.VoteTarget{AnswerID: a.ID}

	want := 0
	var wg sync.WaitGroup
	for i, v := range voters {
		kind := models.VoteUp
		if i%4 == 0 {
			kind = models.VoteDown
		}
		if kind == models.VoteUp {
			want++
		} else {
			want--
		}
		for _, target := range []models.VoteTarget{questionTarget, answerTarget} {
			wg.Add(1)
			go func(userID string, target models.VoteTarget, kind models.VoteKind) {
				defer wg.Done()
				res, err := svc.CastVote(ctx, userID, target, kind)
				if assert.NoError(t, err) && assert.NotNil(t, res.UserVote) {
					assert.Equal(t, kind, *res.UserVote)
				}
			}(v.ID, target, kind)
		}
	}
	wg.Wait()

	assert.Equal(t, want, assertLedgerConsistent(t, store, questionTarget))
	assert.Equal(t, want, assertLedgerConsistent(t, store, answerTarget))
	assert.Equal(t, int64(2*len(voters)), notifier.voteUpdates.Load())
}

func TestCastVote_Postgres_ConcurrentFlipsAndToggles(t *testing.T) {
	store := startPostgres(t)
	q, _, voters := seedThread(t, store, 16)
	svc := service.NewVoteService(store, nil, 5)
	ctx := context.Background()
	target := models.VoteTarget{QuestionID: q.ID}

	for _, v := range voters {
		_, err := svc.CastVote(ctx, v.ID, target, models.VoteUp)
		require.NoError(t, err)
	}
	require.Equal(t, len(voters), assertLedgerConsistent(t, store, target))

	// Every voter fires a flip and a repeat of their current vote at the same
	// time; even voters add a second flip. The final state per voter depends
	// on ordering, the ledger must not.
	var wg sync.WaitGroup
	cast := func(userID string, kind models.VoteKind) {
		defer wg.Done()
		_, err := svc.CastVote(ctx, userID, target, kind)
		assert.NoError(t, err)
	}
	for i, v := range voters {
		wg.Add(2)
		go cast(v.ID, models.VoteDown)
		go cast(v.ID, models.VoteUp)
		if i%2 == 0 {
			wg.Add(1)
			go cast(v.ID, models.VoteDown)
		}
	}
	wg.Wait()

	count := assertLedgerConsistent(t, store, target)
	assert.LessOrEqual(t, count, len(voters))
	assert.GreaterOrEqual(t, count, -len(voters))

	// a serial round on top must still move the count by exactly one step per cast
	votes, err := svc.GetUserVotes(ctx, voters[0].ID, target)
	require.NoError(t, err)
	res, err := svc.CastVote(ctx, voters[0].ID, target, models.VoteUp)
	require.NoError(t, err)
	switch {
	case len(votes) == 0:
		assert.Equal(t, count+1, res.VoteCount)
	case votes[0].Type == models.VoteUp:
		assert.Equal(t, count-1, res.VoteCount)
	default:
		assert.Equal(t, count+2, res.VoteCount)
	}
	assertLedgerConsistent(t, store, target)
}
