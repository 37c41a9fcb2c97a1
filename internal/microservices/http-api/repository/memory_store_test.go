package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stackit/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemory(t *testing.T) (*MemoryStore, *models.User, *models.Question) {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore(time.Second)
	u := &models.User{Username: "author", Email: "author@example.com", IsActive: true}
	q := &models.Question{Title: "t", Content: "c"}
	require.NoError(t, store.WithinTx(ctx, func(repo Repository) error {
		if err := repo.CreateUser(ctx, u); err != nil {
			return err
		}
		q.AuthorID = u.ID
		return repo.CreateQuestion(ctx, q)
	}))
	return store, u, q
}

func TestMemoryStore_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store, u, q := seedMemory(t)
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(repo Repository) error {
		require.NoError(t, repo.CreateVote(ctx, &models.Vote{UserID: u.ID, Type: models.VoteUp, QuestionID: &q.ID}))
		require.NoError(t, repo.SetVoteCount(ctx, models.VoteTarget{QuestionID: q.ID}, 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, store.View(ctx, func(repo Repository) error {
		got, err := repo.GetQuestion(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.VoteCount)
		votes, err := repo.ListVotes(ctx, models.VoteTarget{QuestionID: q.ID})
		assert.Empty(t, votes)
		return err
	}))
}

func TestMemoryStore_ViewIsReadOnly(t *testing.T) {
	ctx := context.Background()
	store, _, q := seedMemory(t)

	err := store.View(ctx, func(repo Repository) error {
		return repo.SetQuestionAnswered(ctx, q.ID, true)
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestMemoryStore_DuplicateVoteConflicts(t *testing.T) {
	ctx := context.Background()
	store, u, q := seedMemory(t)

	err := store.WithinTx(ctx, func(repo Repository) error {
		if err := repo.CreateVote(ctx, &models.Vote{UserID: u.ID, Type: models.VoteUp, QuestionID: &q.ID}); err != nil {
			return err
		}
		return repo.CreateVote(ctx, &models.Vote{UserID: u.ID, Type: models.VoteDown, QuestionID: &q.ID})
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryStore_WriterSlotTimeout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(50 * time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.WithinTx(ctx, func(repo Repository) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := store.WithinTx(ctx, func(repo Repository) error { return nil })
	assert.ErrorIs(t, err, ErrTimeout)

	close(release)
	wg.Wait()
}

func TestMemoryStore_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	store, _, q := seedMemory(t)

	inTx := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = store.WithinTx(ctx, func(repo Repository) error {
			_ = repo.UpdateQuestion(ctx, q.ID, "changed", "")
			close(inTx)
			<-done
			return nil
		})
	}()
	<-inTx

	// uncommitted writes are invisible to readers
	require.NoError(t, store.View(ctx, func(repo Repository) error {
		got, err := repo.GetQuestion(ctx, q.ID)
		assert.Equal(t, "t", got.Title)
		return err
	}))
	close(done)
}

func TestMemoryStore_DetailOrdering(t *testing.T) {
	ctx := context.Background()
	store, u, q := seedMemory(t)

	var low, high, accepted *models.Answer
	require.NoError(t, store.WithinTx(ctx, func(repo Repository) error {
		low = &models.Answer{QuestionID: q.ID, AuthorID: u.ID, Content: "low"}
		high = &models.Answer{QuestionID: q.ID, AuthorID: u.ID, Content: "high", VoteCount: 5}
		accepted = &models.Answer{QuestionID: q.ID, AuthorID: u.ID, Content: "accepted", IsAccepted: true}
		for _, a := range []*models.Answer{low, high, accepted} {
			if err := repo.CreateAnswer(ctx, a); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, store.View(ctx, func(repo Repository) error {
		detail, err := repo.GetQuestionDetail(ctx, q.ID)
		require.NoError(t, err)
		require.Len(t, detail.Answers, 3)
		assert.Equal(t, accepted.ID, detail.Answers[0].ID)
		assert.Equal(t, high.ID, detail.Answers[1].ID)
		assert.Equal(t, low.ID, detail.Answers[2].ID)
		assert.Equal(t, "author", detail.Answers[0].Author.Username)
		return nil
	}))
}
