package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteKind string

const (
	VoteUp   VoteKind = "UP"
	VoteDown VoteKind = "DOWN"
)

// Valid reports whether k is one of the two vote kinds.
func (k VoteKind) Valid() bool {
	return k == VoteUp || k == VoteDown
}

// Vote is one user's vote on exactly one question or answer.
// The pair (user, target) is unique.
type Vote struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID     string    `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_question;uniqueIndex:idx_votes_user_answer"`
	Type       VoteKind  `json:"type" gorm:"type:varchar(4);not null;check:chk_votes_type,type IN ('UP','DOWN')"`
	QuestionID *string   `json:"questionId,omitempty" gorm:"type:uuid;index;uniqueIndex:idx_votes_user_question;check:chk_votes_target,(question_id IS NULL) <> (answer_id IS NULL)"`
	AnswerID   *string   `json:"answerId,omitempty" gorm:"type:uuid;index;uniqueIndex:idx_votes_user_answer"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return
}

func (Vote) TableName() string {
	return "votes"
}

// Target returns the vote's target.
func (v *Vote) Target() VoteTarget {
	t := VoteTarget{}
	if v.QuestionID != nil {
		t.QuestionID = *v.QuestionID
	}
	if v.AnswerID != nil {
		t.AnswerID = *v.AnswerID
	}
	return t
}

// VoteTarget names the voted item. Exactly one field must be set.
type VoteTarget struct {
	QuestionID string
	AnswerID   string
}

func (t VoteTarget) Valid() bool {
	return (t.QuestionID == "") != (t.AnswerID == "")
}

func (t VoteTarget) IsQuestion() bool {
	return t.QuestionID != ""
}

// ID returns whichever id is set.
func (t VoteTarget) ID() string {
	if t.QuestionID != "" {
		return t.QuestionID
	}
	return t.AnswerID
}

// Kind is "question" or "answer".
func (t VoteTarget) Kind() string {
	if t.IsQuestion() {
		return "question"
	}
	return "answer"
}

// NetVotes returns #UP - #DOWN over votes.
func NetVotes(votes []Vote) int {
	net := 0
	for _, v := range votes {
		switch v.Type {
		case VoteUp:
			net++
		case VoteDown:
			net--
		}
	}
	return net
}
