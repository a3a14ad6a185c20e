package precomputematches

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"compatibility-workers/internal/common/camunda"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/matching/ranking"
	"compatibility-workers/internal/models"
)

const TaskType = "precompute-matches"

type PrecomputeService interface {
	PrecomputeAll(ctx context.Context, opts ranking.PrecomputeOptions) (*models.PrecomputeResult, error)
}

type Handler struct {
	config  *Config
	service PrecomputeService
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, service PrecomputeService, runner *camunda.JobRunner, log logger.Logger) *Handler {
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

// Execute runs one precompute pass. When the job deadline cuts the pass short
// the partial counts are still returned with the error logged.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.service.PrecomputeAll(ctx, ranking.PrecomputeOptions{
		BatchSize:  input.BatchSize,
		BatchDelay: time.Duration(input.BatchDelayMs) * time.Millisecond,
	})
	if err != nil {
		if result == nil {
			return nil, err
		}
		h.logger.Warn("precompute interrupted", map[string]interface{}{
			"succeeded": result.Succeeded,
			"failed":    result.Failed,
			"error":     err.Error(),
		})
	}

	if result.Skipped {
		h.logger.Info("precompute already running", nil)
	}

	return &Output{
		TotalUsers:  result.TotalUsers,
		Succeeded:   result.Succeeded,
		Failed:      result.Failed,
		DurationMs:  result.Duration.Milliseconds(),
		CompletedAt: result.CompletedAt,
		Skipped:     result.Skipped,
	}, nil
}
