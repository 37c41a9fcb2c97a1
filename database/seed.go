package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stackit/internal/microservices/http-api/middleware/auth"
	"stackit/internal/microservices/http-api/models"
	"stackit/internal/microservices/http-api/repository"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

type seedUser struct {
	username string
	role     string
}

var demoUsers = []seedUser{
	{"alice", models.RoleUser},
	{"bob", models.RoleUser},
	{"carol", models.RoleModerator},
	{"admin", models.RoleAdmin},
}

type seedQuestion struct {
	author  string
	title   string
	content string
	answers []seedAnswer
}

type seedAnswer struct {
	author  string
	content string
}

var demoQuestions = []seedQuestion{
	{
		author:  "alice",
		title:   "How do I cancel a context from another goroutine?",
		content: "<p>I pass a <code>context.Context</code> into a worker and want to stop it from main. What is the usual way to do that?</p>",
		answers: []seedAnswer{
			{"bob", "<p>Create it with <code>context.WithCancel</code> and call the returned cancel func from main. The worker selects on <code>ctx.Done()</code>.</p>"},
			{"carol", "<p>If you also need a deadline use <code>context.WithTimeout</code>, it cancels by itself when the time is up.</p>"},
		},
	},
	{
		author:  "bob",
		title:   "Why does GORM ignore my false boolean on create?",
		content: "<p>I set <code>IsActive: false</code> but the row is stored as true. The field has <code>default:true</code> in its tag.</p>",
		answers: []seedAnswer{
			{"alice", "<p>Zero values are skipped on insert when the field has a default. Use a pointer or update the column after creating the row.</p>"},
		},
	},
}

// SeedResult lists what Seed created or found.
type SeedResult struct {
	Users     []*models.User
	Questions []*models.Question
}

// Seed inserts demo users, questions and answers in one transaction. Users
// that already exist are reused; questions are only added when the demo
// users were created by this call.
func Seed(ctx context.Context, store repository.Store, log *slog.Logger) (*SeedResult, error) {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	result := &SeedResult{}
	err = store.WithinTx(ctx, func(repo repository.Repository) error {
		result.Users = result.Users[:0]
		result.Questions = result.Questions[:0]

		byName := make(map[string]*models.User, len(demoUsers))
		created := false
		for _, su := range demoUsers {
			user, err := repo.FindUserByUsername(ctx, su.username)
			if errors.Is(err, repository.ErrNotFound) {
				user = &models.User{
					Username: su.username,
					Email:    su.username + "@stackit.local",
					Password: string(hash),
					Role:     su.role,
					IsActive: true,
				}
				if err := repo.CreateUser(ctx, user); err != nil {
					return fmt.Errorf("create user %s: %w", su.username, err)
				}
				created = true
			} else if err != nil {
				return err
			}
			byName[su.username] = user
			result.Users = append(result.Users, user)
		}
		if !created {
			return nil
		}

		for _, sq := range demoQuestions {
			q := &models.Question{
				Title:    sq.title,
				Content:  sq.content,
				AuthorID: byName[sq.author].ID,
			}
			if err := repo.CreateQuestion(ctx, q); err != nil {
				return fmt.Errorf("create question: %w", err)
			}
			for _, sa := range sq.answers {
				a := &models.Answer{
					QuestionID: q.ID,
					AuthorID:   byName[sa.author].ID,
					Content:    sa.content,
				}
				if err := repo.CreateAnswer(ctx, a); err != nil {
					return fmt.Errorf("create answer: %w", err)
				}
			}
			n, err := repo.RecountAnswers(ctx, q.ID)
			if err != nil {
				return err
			}
			q.AnswerCount = n
			result.Questions = append(result.Questions, q)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("database_seeded",
		"users", len(result.Users),
		"questions", len(result.Questions),
	)
	return result, nil
}
