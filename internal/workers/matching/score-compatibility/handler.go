package scorecompatibility

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"compatibility-workers/internal/common/camunda"
	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/matching/ranking"
	"compatibility-workers/internal/models"
)

const TaskType = "score-compatibility"

type ScoreService interface {
	ScoreCompatibility(ctx context.Context, userA, userB string, opts ranking.ScoreOptions) (*models.CompatibilityScore, error)
}

type Handler struct {
	config  *Config
	service ScoreService
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, service ScoreService, runner *camunda.JobRunner, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		service: service,
		runner:  runner,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, job entities.Job) (interface{}, error) {
		var input Input
		if err := h.runner.Decode(job, &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

// Execute scores the pair. A missing profile surfaces as PROFILE_NOT_FOUND
// even though the service reports it wrapped in SCORE_UNAVAILABLE.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	score, err := h.service.ScoreCompatibility(ctx, input.UserID, input.CandidateID, ranking.ScoreOptions{
		ForceRefresh: input.ForceRefresh,
	})
	if err != nil {
		if nf, ok := apperrors.FindCode(err, apperrors.ErrCodeProfileNotFound); ok {
			return nil, nf
		}
		return nil, err
	}

	insights := score.Insights
	if insights == nil {
		insights = []string{}
	}
	return &Output{
		Overall:    score.Overall,
		Breakdown:  score.Breakdown,
		Confidence: score.Confidence,
		Insights:   insights,
	}, nil
}
