package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	json "github.com/goccy/go-json"

	"compatibility-workers/internal/common/config"
	apperrors "compatibility-workers/internal/common/errors"
	"compatibility-workers/internal/common/logger"
	"compatibility-workers/internal/common/metrics"
	"compatibility-workers/internal/common/observability"
	"compatibility-workers/internal/common/validation"
)

const reportTimeout = 5 * time.Second

// JobFunc does the work for one job and returns the variables to complete it
// with.
type JobFunc func(ctx context.Context, job entities.Job) (interface{}, error)

// JobRunner wraps a JobFunc with the bookkeeping every worker shares: timeout,
// metrics, error reporting and completion.
type JobRunner struct {
	taskType  string
	timeout   time.Duration
	errors    *apperrors.ErrorHandler
	obs       *observability.Observability
	validator *validation.Validator
	logger    logger.Logger
}

// NewJobRunner builds a runner for taskType. obs and validator may be nil.
func NewJobRunner(
	taskType string,
	timeout time.Duration,
	obs *observability.Observability,
	validator *validation.Validator,
	log logger.Logger,
) *JobRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	return &JobRunner{
		taskType:  taskType,
		timeout:   timeout,
		errors:    apperrors.NewErrorHandler(log),
		obs:       obs,
		validator: validator,
		logger:    log,
	}
}

// Run executes fn for job and reports the outcome to the broker.
func (r *JobRunner) Run(client worker.JobClient, job entities.Job, fn JobFunc) {
	start := time.Now()
	active := metrics.WorkerJobsActive.WithLabelValues(r.taskType)
	active.Inc()
	defer active.Dec()

	r.logger.Info("Processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	output, err := fn(ctx, job)
	duration := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(duration.Seconds())

	// The job context may already be spent; reporting gets its own deadline.
	ctx, cancelReport := context.WithTimeout(context.Background(), reportTimeout)
	defer cancelReport()

	if err != nil {
		stdErr := apperrors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(stdErr.Code)).Inc()
		r.obs.RecordJob(ctx, r.taskType, "failed", duration)
		r.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	if err := r.complete(ctx, client, job, output); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(apperrors.ErrCodeInternal)).Inc()
		r.obs.RecordJob(ctx, r.taskType, "failed", duration)
		r.errors.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	r.obs.RecordJob(ctx, r.taskType, "completed", duration)
	r.logger.Info("Job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"durationMs": duration.Milliseconds(),
	})
}

func (r *JobRunner) complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}

// Decode validates the job variables against the registered input schema and
// unmarshals them into dst.
func (r *JobRunner) Decode(job entities.Job, dst interface{}) error {
	raw := job.Variables
	if raw == "" {
		raw = "{}"
	}

	vars := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return apperrors.NewInvalidInputError("job variables are not a JSON object: " + err.Error())
	}

	if r.validator != nil {
		if err := r.validator.ValidateInput(r.taskType, vars).Err(); err != nil {
			return err
		}
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return apperrors.NewInvalidInputError("job variables do not match input: " + err.Error())
	}
	return nil
}

// StartWorker opens a job worker for taskType on client.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler worker.JobHandler,
	log logger.Logger,
) worker.JobWorker {
	maxJobs := wcfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = 5
	}
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(maxJobs).
		Timeout(timeout).
		Open()

	log.Info("Worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobs,
		"timeout":       timeout.String(),
	})
	return jw
}
