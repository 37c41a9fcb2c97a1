package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"stackit/internal/microservices/http-api/models"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. A transaction works on a private
// copy of the state and swaps it in on success, so a failed fn leaves no
// trace. Writers are serialised, readers see the last committed state.
type MemoryStore struct {
	mu        sync.RWMutex
	state     *memState
	writer    chan struct{}
	txTimeout time.Duration
}

func NewMemoryStore(txTimeout time.Duration) *MemoryStore {
	return &MemoryStore{
		state:     newMemState(),
		writer:    make(chan struct{}, 1),
		txTimeout: txTimeout,
	}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(repo Repository) error) error {
	ctx, cancel := withTxTimeout(ctx, s.txTimeout)
	defer cancel()

	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for writer slot", ErrTimeout)
	}
	defer func() { <-s.writer }()

	s.mu.RLock()
	working := s.state.clone()
	s.mu.RUnlock()

	if err := fn(&memoryRepository{state: working}); err != nil {
		return translateError(ctx, err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}

	s.mu.Lock()
	s.state = working
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(repo Repository) error) error {
	ctx, cancel := withTxTimeout(ctx, s.txTimeout)
	defer cancel()

	s.mu.RLock()
	snapshot := s.state
	s.mu.RUnlock()

	return translateError(ctx, fn(&memoryRepository{state: snapshot, readOnly: true}))
}

func (s *MemoryStore) Close() error {
	return nil
}

type memState struct {
	users     map[string]models.User
	questions map[string]models.Question
	answers   map[string]models.Answer
	votes     map[string]models.Vote
	views     map[[2]string]struct{}
}

func newMemState() *memState {
	return &memState{
		users:     make(map[string]models.User),
		questions: make(map[string]models.Question),
		answers:   make(map[string]models.Answer),
		votes:     make(map[string]models.Vote),
		views:     make(map[[2]string]struct{}),
	}
}

// clone copies the maps. Values are structs without shared slices once
// associations are stripped on insert.
func (st *memState) clone() *memState {
	c := &memState{
		users:     make(map[string]models.User, len(st.users)),
		questions: make(map[string]models.Question, len(st.questions)),
		answers:   make(map[string]models.Answer, len(st.answers)),
		votes:     make(map[string]models.Vote, len(st.votes)),
		views:     make(map[[2]string]struct{}, len(st.views)),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.questions {
		c.questions[k] = v
	}
	for k, v := range st.answers {
		c.answers[k] = v
	}
	for k, v := range st.votes {
		c.votes[k] = v
	}
	for k := range st.views {
		c.views[k] = struct{}{}
	}
	return c
}

type memoryRepository struct {
	state    *memState
	readOnly bool
}

func (r *memoryRepository) write() error {
	if r.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (r *memoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.write(); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	for _, u := range r.state.users {
		if u.ID == user.ID || u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("%w: user already exists", ErrConflict)
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.state.users[user.ID] = *user
	return nil
}

func (r *memoryRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.state.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	if err := r.write(); err != nil {
		return err
	}
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if _, ok := r.state.questions[q.ID]; ok {
		return fmt.Errorf("%w: question %s exists", ErrConflict, q.ID)
	}
	// honour explicit timestamps like GORM's autoCreateTime does
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	q.UpdatedAt = q.CreatedAt
	stored := *q
	stored.Author, stored.Answers, stored.Votes, stored.Tags = models.User{}, nil, nil, nil
	r.state.questions[q.ID] = stored
	return nil
}

func (r *memoryRepository) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	q, ok := r.state.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

// LockQuestion is a plain read; the writer slot already excludes others.
func (r *memoryRepository) LockQuestion(ctx context.Context, id string) (*models.Question, error) {
	return r.GetQuestion(ctx, id)
}

func (r *memoryRepository) GetQuestionDetail(ctx context.Context, id string) (*models.Question, error) {
	q, ok := r.state.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	q.Author = r.state.users[q.AuthorID]
	q.Answers = nil
	for _, a := range r.state.answers {
		if a.QuestionID == id {
			a.Author = r.state.users[a.AuthorID]
			q.Answers = append(q.Answers, a)
		}
	}
	sort.Slice(q.Answers, func(i, j int) bool {
		a, b := q.Answers[i], q.Answers[j]
		if a.IsAccepted != b.IsAccepted {
			return a.IsAccepted
		}
		if a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return &q, nil
}

func (r *memoryRepository) UpdateQuestion(ctx context.Context, id, title, content string) error {
	if err := r.write(); err != nil {
		return err
	}
	q, ok := r.state.questions[id]
	if !ok {
		return ErrNotFound
	}
	if title != "" {
		q.Title = title
	}
	if content != "" {
		q.Content = content
	}
	q.UpdatedAt = time.Now()
	r.state.questions[id] = q
	return nil
}

func (r *memoryRepository) DeleteQuestion(ctx context.Context, id string) error {
	if err := r.write(); err != nil {
		return err
	}
	if _, ok := r.state.questions[id]; !ok {
		return ErrNotFound
	}
	for aid, a := range r.state.answers {
		if a.QuestionID == id {
			r.deleteVotesFor(models.VoteTarget{AnswerID: aid})
			delete(r.state.answers, aid)
		}
	}
	r.deleteVotesFor(models.VoteTarget{QuestionID: id})
	for k := range r.state.views {
		if k[1] == id {
			delete(r.state.views, k)
		}
	}
	delete(r.state.questions, id)
	return nil
}

func (r *memoryRepository) SetQuestionAnswered(ctx context.Context, id string, answered bool) error {
	if err := r.write(); err != nil {
		return err
	}
	q, ok := r.state.questions[id]
	if !ok {
		return ErrNotFound
	}
	q.IsAnswered = answered
	r.state.questions[id] = q
	return nil
}

func (r *memoryRepository) RecountAnswers(ctx context.Context, questionID string) (int, error) {
	if err := r.write(); err != nil {
		return 0, err
	}
	q, ok := r.state.questions[questionID]
	if !ok {
		return 0, ErrNotFound
	}
	count := 0
	for _, a := range r.state.answers {
		if a.QuestionID == questionID {
			count++
		}
	}
	q.AnswerCount = count
	r.state.questions[questionID] = q
	return count, nil
}

func (r *memoryRepository) RecordView(ctx context.Context, userID, questionID string) (bool, error) {
	if err := r.write(); err != nil {
		return false, err
	}
	q, ok := r.state.questions[questionID]
	if !ok {
		return false, ErrNotFound
	}
	if userID != "" {
		key := [2]string{userID, questionID}
		if _, seen := r.state.views[key]; seen {
			return false, nil
		}
		r.state.views[key] = struct{}{}
	}
	q.ViewCount++
	r.state.questions[questionID] = q
	return true, nil
}

func (r *memoryRepository) ListQuestions(ctx context.Context, f QuestionFilter) ([]models.Question, int64, error) {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]models.Question, 0, len(r.state.questions))
	for _, q := range r.state.questions {
		if f.Unanswered && q.AnswerCount > 0 {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(q.Title), term) &&
			!strings.Contains(strings.ToLower(q.Content), term) {
			continue
		}
		matched = append(matched, q)
	}

	// same keys as questionOrder
	newer := func(a, b models.Question) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case SortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		case SortVotes:
			if a.VoteCount != b.VoteCount {
				return a.VoteCount > b.VoteCount
			}
		case SortViews:
			if a.ViewCount != b.ViewCount {
				return a.ViewCount > b.ViewCount
			}
		}
		return newer(a, b)
	})

	total := int64(len(matched))
	start := min(max(f.Offset, 0), len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}
	page := make([]models.Question, 0, end-start)
	for _, q := range matched[start:end] {
		q.Author = r.state.users[q.AuthorID]
		page = append(page, q)
	}
	return page, total, nil
}

func (r *memoryRepository) CreateAnswer(ctx context.Context, a *models.Answer) error {
	if err := r.write(); err != nil {
		return err
	}
	if _, ok := r.state.questions[a.QuestionID]; !ok {
		return ErrNotFound
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	stored := *a
	stored.Author, stored.Votes = models.User{}, nil
	r.state.answers[a.ID] = stored
	return nil
}

func (r *memoryRepository) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	a, ok := r.state.answers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *memoryRepository) LockAnswer(ctx context.Context, id string) (*models.Answer, error) {
	return r.GetAnswer(ctx, id)
}

func (r *memoryRepository) UpdateAnswerContent(ctx context.Context, id, content string) error {
	if err := r.write(); err != nil {
		return err
	}
	a, ok := r.state.answers[id]
	if !ok {
		return ErrNotFound
	}
	a.Content = content
	a.UpdatedAt = time.Now()
	r.state.answers[id] = a
	return nil
}

func (r *memoryRepository) DeleteAnswer(ctx context.Context, id string) error {
	if err := r.write(); err != nil {
		return err
	}
	if _, ok := r.state.answers[id]; !ok {
		return ErrNotFound
	}
	r.deleteVotesFor(models.VoteTarget{AnswerID: id})
	delete(r.state.answers, id)
	return nil
}

func (r *memoryRepository) SetAnswerAccepted(ctx context.Context, id string, accepted bool) error {
	if err := r.write(); err != nil {
		return err
	}
	a, ok := r.state.answers[id]
	if !ok {
		return ErrNotFound
	}
	a.IsAccepted = accepted
	r.state.answers[id] = a
	return nil
}

func (r *memoryRepository) ClearAcceptedAnswers(ctx context.Context, questionID, exceptAnswerID string) (int64, error) {
	if err := r.write(); err != nil {
		return 0, err
	}
	var cleared int64
	for id, a := range r.state.answers {
		if a.QuestionID == questionID && id != exceptAnswerID && a.IsAccepted {
			a.IsAccepted = false
			r.state.answers[id] = a
			cleared++
		}
	}
	return cleared, nil
}

func (r *memoryRepository) CountAcceptedAnswers(ctx context.Context, questionID string) (int64, error) {
	var n int64
	for _, a := range r.state.answers {
		if a.QuestionID == questionID && a.IsAccepted {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) FindVote(ctx context.Context, userID string, target models.VoteTarget) (*models.Vote, error) {
	for _, v := range r.state.votes {
		if v.UserID == userID && v.Target() == target {
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) ListVotes(ctx context.Context, target models.VoteTarget) ([]models.Vote, error) {
	var votes []models.Vote
	for _, v := range r.state.votes {
		if v.Target() == target {
			votes = append(votes, v)
		}
	}
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].CreatedAt.Before(votes[j].CreatedAt)
	})
	return votes, nil
}

func (r *memoryRepository) CreateVote(ctx context.Context, v *models.Vote) error {
	if err := r.write(); err != nil {
		return err
	}
	target := v.Target()
	if !target.Valid() {
		return fmt.Errorf("vote must reference exactly one target")
	}
	if _, err := r.FindVote(ctx, v.UserID, target); err == nil {
		return fmt.Errorf("%w: duplicate vote", ErrConflict)
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now()
	v.CreatedAt, v.UpdatedAt = now, now
	r.state.votes[v.ID] = *v
	return nil
}

func (r *memoryRepository) UpdateVoteKind(ctx context.Context, id string, kind models.VoteKind) error {
	if err := r.write(); err != nil {
		return err
	}
	v, ok := r.state.votes[id]
	if !ok {
		return ErrNotFound
	}
	v.Type = kind
	v.UpdatedAt = time.Now()
	r.state.votes[id] = v
	return nil
}

func (r *memoryRepository) DeleteVote(ctx context.Context, id string) error {
	if err := r.write(); err != nil {
		return err
	}
	if _, ok := r.state.votes[id]; !ok {
		return ErrNotFound
	}
	delete(r.state.votes, id)
	return nil
}

func (r *memoryRepository) SetVoteCount(ctx context.Context, target models.VoteTarget, count int) error {
	if err := r.write(); err != nil {
		return err
	}
	if target.IsQuestion() {
		q, ok := r.state.questions[target.QuestionID]
		if !ok {
			return ErrNotFound
		}
		q.VoteCount = count
		r.state.questions[q.ID] = q
		return nil
	}
	a, ok := r.state.answers[target.AnswerID]
	if !ok {
		return ErrNotFound
	}
	a.VoteCount = count
	r.state.answers[a.ID] = a
	return nil
}

func (r *memoryRepository) deleteVotesFor(target models.VoteTarget) {
	for id, v := range r.state.votes {
		if v.Target() == target {
			delete(r.state.votes, id)
		}
	}
}
