package domain

import (
	"errors"
	"strings"
	"time"
)

// Question status constants.
const (
	QuestionStatusNew      = "new"
	QuestionStatusReplied  = "replied"
	QuestionStatusArchived = "archived"
)

var (
	// ErrEmptyReply is returned for a reply that is blank after trimming.
	ErrEmptyReply = errors.New("reply must not be empty")
	// ErrAlreadyReplied is returned when replying to a question that has left
	// the new state.
	ErrAlreadyReplied = errors.New("question has already been answered")
)

// Question is a congregant's question to the masjid.
type Question struct {
	ID        string     `json:"id"`
	MasjidID  string     `json:"masjid_id"`
	UserName  string     `json:"user_name"`
	UserEmail string     `json:"user_email,omitempty"`
	Title     string     `json:"title"`
	Body      string     `json:"question"`
	Status    string     `json:"status"`
	Reply     string     `json:"reply,omitempty"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`
	RepliedBy string     `json:"replied_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsValidQuestionStatus checks if a status string is valid.
func IsValidQuestionStatus(status string) bool {
	switch status {
	case QuestionStatusNew, QuestionStatusReplied, QuestionStatusArchived:
		return true
	}
	return false
}

// CanReply checks whether q accepts a reply. Only new questions do; a reply
// is written once.
func (q Question) CanReply() error {
	if q.Status != QuestionStatusNew && q.Status != "" {
		return ErrAlreadyReplied
	}
	return nil
}

// NormalizeReply trims reply and rejects blank input.
func NormalizeReply(reply string) (string, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// CountPending returns how many questions still await a reply.
func CountPending(list []Question) int {
	n := 0
	for _, q := range list {
		if q.Status == QuestionStatusNew {
			n++
		}
	}
	return n
}

// QuestionStatistics are the per-status question counters for a masjid.
type QuestionStatistics struct {
	Total    int `json:"total"`
	New      int `json:"new"`
	Replied  int `json:"replied"`
	Archived int `json:"archived"`
}
