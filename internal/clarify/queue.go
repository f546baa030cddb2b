package clarify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/model"
)

// QueueReport summarizes one ProcessReevaluations invocation.
type QueueReport struct {
	Completed int
	Failed    int
}

// ProcessReevaluations consumes every pending re-evaluation task. Each task
// runs under its own timeout; a failure flips that task to failed with the
// error recorded and does not stop the rest of the queue. With dryRun the
// engine runs for each task but tasks stay pending and nothing is written.
func (w *Workflow) ProcessReevaluations(ctx context.Context, jobID string, dryRun bool) (QueueReport, error) {
	var report QueueReport

	tasks, err := w.store.PendingReevaluations(jobID)
	if err != nil {
		return report, err
	}
	if len(tasks) == 0 {
		zap.L().Info("re-evaluation queue empty", zap.String("job_id", jobID))
		return report, nil
	}

	timeout := time.Duration(w.cfg.ReevalTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}

	for _, task := range tasks {
		taskCtx, cancel := context.WithTimeout(ctx, timeout)
		// Tasks are queued from responded clarifications, so the candidate may
		// no longer be MAYBE if an operator intervened; force keeps the queue
		// draining either way.
		_, err := w.Reevaluate(taskCtx, jobID, task.CandidateID, true, dryRun)
		cancel()

		now := time.Now().UTC()
		if err != nil {
			task.Status = model.TaskFailed
			task.Error = truncateError(err.Error(), 500)
			report.Failed++
			zap.L().Warn("re-evaluation task failed",
				zap.String("candidate_id", task.CandidateID),
				zap.Error(err))
		} else {
			task.Status = model.TaskComplete
			task.CompletedAt = &now
			report.Completed++
		}
		if !dryRun {
			if err := w.store.SaveReevaluation(jobID, task); err != nil {
				return report, err
			}
		}

		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}

	zap.L().Info("re-evaluation queue drained",
		zap.String("job_id", jobID),
		zap.Int("completed", report.Completed),
		zap.Int("failed", report.Failed))
	return report, nil
}

func truncateError(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
