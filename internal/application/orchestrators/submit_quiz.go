package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"masgolf/internal/domain/notify"
	"masgolf/internal/domain/quiz"
)

// QuizStoreForSubmit defines the store interface needed by SubmitQuiz.
type QuizStoreForSubmit interface {
	Save(ctx context.Context, r quiz.Result) error
}

// SubmitQuizInput carries the fitting questionnaire.
type SubmitQuizInput struct {
	Name             string
	Phone            string
	Email            string
	SwingStyle       string
	Priority         string
	CurrentDistance  string
	RecommendedFlex  string
	ExpectedDistance string
	CampaignSource   string
}

// SubmitQuizDeps holds dependencies for SubmitQuiz.
type SubmitQuizDeps struct {
	QuizStore QuizStoreForSubmit
	Notify    NotifyDeps
	Now       func() time.Time
}

// ExecuteSubmitQuiz stores a questionnaire result. The returned ID lets the
// booking form reference it as quiz_result_id.
// PRE: name and phone are provided
// POST: Result persisted
func ExecuteSubmitQuiz(ctx context.Context, input SubmitQuizInput, deps SubmitQuizDeps) (quiz.Result, error) {
	now := clock(deps.Now)
	r := quiz.Result{
		ID:               uuid.New().String(),
		Name:             input.Name,
		Phone:            input.Phone,
		Email:            input.Email,
		SwingStyle:       input.SwingStyle,
		Priority:         input.Priority,
		CurrentDistance:  input.CurrentDistance,
		RecommendedFlex:  input.RecommendedFlex,
		ExpectedDistance: input.ExpectedDistance,
		CampaignSource:   input.CampaignSource,
		CreatedAt:        now,
	}
	r.Normalize()
	if err := r.Validate(); err != nil {
		return quiz.Result{}, err
	}
	if err := deps.QuizStore.Save(ctx, r); err != nil {
		return quiz.Result{}, fmt.Errorf("save quiz result: %w", err)
	}
	slog.Info("quiz_submitted", "quiz_result_id", r.ID, "recommended_flex", r.RecommendedFlex)
	deps.Notify.Metrics.FormSubmitted("quiz")

	EnqueueNotification(ctx, Notification{
		Source:  "quiz",
		Text:    notify.QuizText(r),
		Subject: "[마쓰구골프] 새 퀴즈 결과: " + r.Name,
	}, deps.Notify, now)
	return r, nil
}
