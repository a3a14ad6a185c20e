package generatematches

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"compatibility-workers/internal/common/camunda"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/matching/ranking"
	"compatibility-workers/internal/models"
)

const TaskType = "generate-matches"

type MatchService interface {
	GenerateMatches(ctx context.Context, userID string, opts ranking.GenerateOptions) (*models.MatchList, error)
}

type Handler struct {
	config  *Config
	service MatchService
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, service MatchService, runner *camunda.JobRunner, log logger.Logger) *Handler {
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	limit := input.Limit
	if limit == 0 {
		limit = h.config.DefaultLimit
	}

	list, err := h.service.GenerateMatches(ctx, input.UserID, ranking.GenerateOptions{
		Limit:        limit,
		MinScore:     input.MinScore,
		ForceRefresh: input.ForceRefresh,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("matches generated", map[string]interface{}{
		"userId": input.UserID,
		"total":  list.Total,
		"cached": list.Cached,
	})

	matches := list.Matches
	if matches == nil {
		matches = []models.RankedMatch{}
	}
	return &Output{
		Matches:        matches,
		Total:          list.Total,
		GeneratedAt:    list.GeneratedAt,
		ResponseTimeMs: list.ResponseTimeMs,
		Cached:         list.Cached,
		Version:        list.Version,
	}, nil
}
