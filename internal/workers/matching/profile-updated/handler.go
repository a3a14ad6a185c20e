package profileupdated

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"compatibility-workers/internal/common/camunda"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/models"
)

const TaskType = "profile-updated"

type UpdateService interface {
	OnProfileUpdated(ctx context.Context, userID string, changedFields []string) (*models.ProfileUpdateResult, error)
}

type Handler struct {
	config  *Config
	service UpdateService
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, service UpdateService, runner *camunda.JobRunner, log logger.Logger) *Handler {
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
	result, err := h.service.OnProfileUpdated(ctx, input.UserID, input.ChangedFields)
	if err != nil {
		return nil, err
	}

	if !result.RecomputeQueued && len(result.SignificantFields) > 0 {
		h.logger.Warn("recompute not queued; cached entries expire by TTL", map[string]interface{}{
			"userId": input.UserID,
		})
	}

	fields := result.SignificantFields
	if fields == nil {
		fields = []string{}
	}
	return &Output{
		Invalidated:       result.Invalidated,
		RecomputeQueued:   result.RecomputeQueued,
		SignificantFields: fields,
	}, nil
}
