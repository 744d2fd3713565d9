package orchestrator

import (
	"context"
	"fmt"

	"github.com/smhassan90/salaahManager/internal/domain"
)

// ReplyToQuestion answers a loaded question of the default masjid. The
// question must exist locally and still be new, and the reply must not be
// blank; all three are checked before the request is sent.
func (o *Orchestrator) ReplyToQuestion(ctx context.Context, questionID, reply string) error {
	const action = "reply to question"

	gen, err := o.begin()
	if err != nil {
		return err
	}
	q := read(o, func(s *State) *domain.Question {
		for i := range s.Questions {
			if s.Questions[i].ID == questionID {
				found := s.Questions[i]
				return &found
			}
		}
		return nil
	})
	if q == nil {
		return newActionError(action, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID))
	}
	if err := q.CanReply(); err != nil {
		return newActionError(action, err)
	}
	reply, err = domain.NormalizeReply(reply)
	if err != nil {
		return newActionError(action, err)
	}

	updated, err := o.deps.Questions.Reply(ctx, questionID, reply)
	if err != nil {
		return newActionError(action, err)
	}

	// Older backends answer with a partial record.
	if updated.ID == "" {
		updated = *q
	}
	if updated.Status == "" || updated.Status == domain.QuestionStatusNew {
		updated.Status = domain.QuestionStatusReplied
	}
	if updated.Reply == "" {
		updated.Reply = reply
	}
	if updated.RepliedAt == nil {
		now := o.now()
		updated.RepliedAt = &now
	}

	o.update(gen, func(s *State) {
		for i := range s.Questions {
			if s.Questions[i].ID == questionID {
				s.Questions[i] = updated
				return
			}
		}
	})
	return nil
}
