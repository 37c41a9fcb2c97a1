package service

import (
	"fmt"
	"testing"

	"stackit/internal/microservices/http-api/models"
)

func BenchmarkCastVote(b *testing.B) {
	f := newFixture(b)
	author := f.user("author", models.RoleUser)
	voter := f.user("voter", models.RoleUser)
	q := f.question(author.ID)
	svc := NewVoteService(f.store, newNotifier(), 3)
	target := models.VoteTarget{QuestionID: q.ID}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// alternates create and delete of the same row
		if _, err := svc.CastVote(f.ctx, voter.ID, target, models.VoteUp); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCastVote_ManyVoters(b *testing.B) {
	f := newFixture(b)
	author := f.user("author", models.RoleUser)
	q := f.question(author.ID)
	voters := make([]*models.User, 50)
	for i := range voters {
		voters[i] = f.user(fmt.Sprintf("voter%d", i), models.RoleUser)
	}
	svc := NewVoteService(f.store, newNotifier(), 3)
	target := models.VoteTarget{QuestionID: q.ID}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			svc.CastVote(f.ctx, voters[i%len(voters)].ID, target, models.VoteDown)
			i++
		}
	})
}
