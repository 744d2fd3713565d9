package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
)

// SubmitQuestionInput holds a congregant's question.
type SubmitQuestionInput struct {
	MasjidID  string `json:"masjidId" validate:"required"`
	UserName  string `json:"userName" validate:"required,notblank"`
	UserEmail string `json:"userEmail,omitempty" validate:"omitempty,email"`
	Title     string `json:"title" validate:"required,notblank,max=200"`
	Question  string `json:"question" validate:"required,notblank"`
}

// QuestionFilter narrows a question listing. Zero values are omitted.
type QuestionFilter struct {
	ListParams
	Status   string
	MasjidID string
}

func (f QuestionFilter) values() url.Values {
	q := f.ListParams.values()
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.MasjidID != "" {
		q.Set("masjidId", f.MasjidID)
	}
	return q
}

// QuestionService wraps the /questions endpoints.
type QuestionService struct {
	d httpclient.Doer
}

// NewQuestionService creates a new question service.
func NewQuestionService(d httpclient.Doer) *QuestionService {
	return &QuestionService{d: d}
}

// Submit posts a new question.
func (s *QuestionService) Submit(ctx context.Context, in SubmitQuestionInput) (domain.Question, error) {
	if err := validate(in); err != nil {
		return domain.Question{}, err
	}
	return call[domain.Question](ctx, s.d, post(pathQuestions, in))
}

// List returns questions across all masajids. Super admins only.
func (s *QuestionService) List(ctx context.Context, f QuestionFilter) (*Page[domain.Question], error) {
	return callPage[domain.Question](ctx, s.d, get(pathQuestions, f.values()))
}

// ListByMasjid returns a masjid's questions.
func (s *QuestionService) ListByMasjid(ctx context.Context, masjidID string, f QuestionFilter) (*Page[domain.Question], error) {
	if err := requireID("masjid id", masjidID); err != nil {
		return nil, err
	}
	f.MasjidID = ""
	return callPage[domain.Question](ctx, s.d, get(questionsByMasjidPath(masjidID), f.values()))
}

// Get returns one question.
func (s *QuestionService) Get(ctx context.Context, id string) (domain.Question, error) {
	if err := requireID("question id", id); err != nil {
		return domain.Question{}, err
	}
	return call[domain.Question](ctx, s.d, get(questionPath(id), nil))
}

// Reply answers a question.
func (s *QuestionService) Reply(ctx context.Context, id, reply string) (domain.Question, error) {
	if err := requireID("question id", id); err != nil {
		return domain.Question{}, err
	}
	in := struct {
		Reply string `json:"reply" validate:"required,notblank"`
	}{Reply: strings.TrimSpace(reply)}
	if err := validate(in); err != nil {
		return domain.Question{}, err
	}
	return call[domain.Question](ctx, s.d, put(questionPath(id, "reply"), in))
}

// UpdateStatus sets a question's status.
func (s *QuestionService) UpdateStatus(ctx context.Context, id, status string) (domain.Question, error) {
	if err := requireID("question id", id); err != nil {
		return domain.Question{}, err
	}
	in := struct {
		Status string `json:"status" validate:"required,oneof=new replied archived"`
	}{Status: status}
	if err := validate(in); err != nil {
		return domain.Question{}, err
	}
	return call[domain.Question](ctx, s.d, put(questionPath(id, "status"), in))
}

// Statistics returns per-status counters for a masjid's questions.
func (s *QuestionService) Statistics(ctx context.Context, masjidID string) (domain.QuestionStatistics, error) {
	if err := requireID("masjid id", masjidID); err != nil {
		return domain.QuestionStatistics{}, err
	}
	return call[domain.QuestionStatistics](ctx, s.d, get(questionsByMasjidPath(masjidID, "statistics"), nil))
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := requireID("question id", id); err != nil {
		return err
	}
	return exec(ctx, s.d, del(questionPath(id)))
}
