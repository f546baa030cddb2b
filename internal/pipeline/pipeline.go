// Package pipeline orchestrates the end-to-end candidate flow: quick-test
// gate, gestalt evaluation, decision branching into the clarification loop or
// the backup list, and dossier generation.
package pipeline

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vrijenattawar/ZoATS/internal/backup"
	"github.com/vrijenattawar/ZoATS/internal/clarify"
	"github.com/vrijenattawar/ZoATS/internal/config"
	"github.com/vrijenattawar/ZoATS/internal/dossier"
	"github.com/vrijenattawar/ZoATS/internal/intake"
	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

// Options modify one Run invocation.
type Options struct {
	FromInbox bool
	DryRun    bool
	// Candidate restricts the run to a single candidate id.
	Candidate string
}

// Orchestrator wires the stage collaborators together. Any nil optional
// collaborator disables its stage (recorded as skipped, never as failed).
type Orchestrator struct {
	store   *store.JobStore
	gate    gateRunner
	engine  evaluator
	clarify initiator
	backup  *backup.Manager
	dossier *dossier.Generator
	intake  *intake.Ingester
	runs    *store.RunStore
	cfg     config.PipelineConfig
}

type gateRunner interface {
	Run(ctx context.Context, jobID, candidateID string, resume *model.ParsedResume, rules []string) (*model.QuickTestResult, error)
}

type evaluator interface {
	Evaluate(ctx context.Context, jobID, candidateID string, resume *model.ParsedResume, rubric *model.Rubric) (*model.GestaltEvaluation, error)
}

type initiator interface {
	Initiate(ctx context.Context, jobID, candidateID string, dryRun bool) (*model.ApprovalRequest, error)
}

// New creates an Orchestrator. The runs store may be nil when run history is
// not wanted (dry runs, tests).
func New(st *store.JobStore, gate gateRunner, engine evaluator, cw *clarify.Workflow, bm *backup.Manager, dg *dossier.Generator, ing *intake.Ingester, runs *store.RunStore, cfg config.PipelineConfig) *Orchestrator {
	var init initiator
	if cw != nil {
		init = cw
	}
	return &Orchestrator{
		store:   st,
		gate:    gate,
		engine:  engine,
		clarify: init,
		backup:  bm,
		dossier: dg,
		intake:  ing,
		runs:    runs,
		cfg:     cfg,
	}
}

// Run processes every candidate under the job and writes the consolidated
// run summary. Candidate failures are contained: one candidate's error never
// stops the others.
func (o *Orchestrator) Run(ctx context.Context, jobID string, opts Options) (*model.RunSummary, error) {
	if err := o.store.RequireJob(jobID); err != nil {
		return nil, err
	}

	startedAt := time.Now().UTC()
	zap.L().Info("pipeline starting",
		zap.String("job_id", jobID),
		zap.Bool("from_inbox", opts.FromInbox),
		zap.Bool("dry_run", opts.DryRun))

	if opts.FromInbox && o.intake != nil {
		if _, err := o.intake.Run(jobID, opts.DryRun); err != nil {
			// Intake trouble should not strand candidates already on disk.
			zap.L().Error("intake failed, continuing with existing candidates", zap.Error(err))
		}
	}

	candidates, err := o.store.ListCandidates(jobID)
	if err != nil {
		return nil, err
	}
	if opts.Candidate != "" {
		if err := o.store.RequireCandidate(jobID, opts.Candidate); err != nil {
			return nil, err
		}
		candidates = []string{opts.Candidate}
	}

	summary := &model.RunSummary{
		Job:       jobID,
		StartedAt: startedAt,
	}
	if len(candidates) == 0 {
		zap.L().Warn("no candidates found", zap.String("job_id", jobID))
		summary.FinishedAt = time.Now().UTC()
		summary.Summary.DecisionBreakdown = map[model.Decision]int{}
		if !opts.DryRun {
			if err := o.store.SavePipelineRun(jobID, summary); err != nil {
				return nil, err
			}
		}
		return summary, nil
	}

	var runID string
	if o.runs != nil && !opts.DryRun {
		runID, err = o.runs.BeginRun(ctx, jobID, startedAt)
		if err != nil {
			return nil, err
		}
	}

	concurrency := o.cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var mu sync.Mutex
	results := make([]model.CandidateResult, 0, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, cid := range candidates {
		cid := cid
		g.Go(func() error {
			result := o.processCandidate(gctx, jobID, cid, opts.DryRun)
			if runID != "" {
				if err := o.runs.RecordCandidate(gctx, runID, &result); err != nil {
					zap.L().Warn("run record not written",
						zap.String("candidate_id", cid),
						zap.Error(err))
				}
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CandidateID < results[j].CandidateID })

	summary.FinishedAt = time.Now().UTC()
	summary.CandidatesProcessed = len(results)
	summary.CandidateResults = results
	summary.Summary = tally(results)

	if !opts.DryRun {
		if err := o.store.SavePipelineRun(jobID, summary); err != nil {
			return nil, err
		}
		if runID != "" {
			if err := o.runs.FinishRun(ctx, runID, summary.FinishedAt, &summary.Summary); err != nil {
				zap.L().Warn("run summary not written", zap.Error(err))
			}
		}
	}

	zap.L().Info("pipeline finished",
		zap.String("job_id", jobID),
		zap.Int("processed", summary.CandidatesProcessed),
		zap.Int("complete", summary.Summary.Complete),
		zap.Int("failed", summary.Summary.Failed),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))
	return summary, nil
}

// processCandidate runs the stage chain for one candidate. Every return path
// sets a terminal status; panics are not possible here so no recover.
func (o *Orchestrator) processCandidate(ctx context.Context, jobID, candidateID string, dryRun bool) model.CandidateResult {
	result := model.CandidateResult{
		CandidateID: candidateID,
		Steps:       map[string]model.StepResult{},
	}
	log := zap.L().With(zap.String("job_id", jobID), zap.String("candidate_id", candidateID))

	// Parser collaborator runs out of band; its output is the precondition.
	resume, err := o.store.LoadResume(jobID, candidateID)
	if err != nil {
		result.Steps["parser"] = model.StepResult{Success: false, Error: shortErr(err)}
		result.Status = model.StatusParserFailed
		log.Warn("parsed resume missing, skipping downstream", zap.Error(err))
		return result
	}
	result.Steps["parser"] = model.StepResult{Success: true}

	rules, err := o.store.LoadDealBreakers(jobID)
	if err != nil {
		result.Steps["quick_test"] = model.StepResult{Success: false, Error: shortErr(err)}
		result.Status = model.StatusQuickTestFailed
		return result
	}

	quick, err := o.gate.Run(ctx, jobID, candidateID, resume, rules)
	if err != nil {
		result.Steps["quick_test"] = model.StepResult{Success: false, Error: shortErr(err)}
		result.Status = model.StatusQuickTestFailed
		log.Warn("quick test failed, skipping downstream", zap.Error(err))
		return result
	}
	result.Steps["quick_test"] = model.StepResult{Success: true}
	result.QuickTestResult = quick.Recommendation
	if !dryRun {
		if err := o.store.SaveQuickTest(jobID, candidateID, quick); err != nil {
			result.Steps["quick_test"] = model.StepResult{Success: false, Error: shortErr(err)}
			result.Status = model.StatusQuickTestFailed
			return result
		}
	}
	if quick.Recommendation == model.RecommendReject {
		result.Status = model.StatusRejectedQuickTest
		result.Decision = model.DecisionPass
		log.Info("rejected at quick test", zap.String("reasoning", quick.Reasoning))
		return result
	}

	rubric, err := o.store.LoadRubric(jobID)
	if err != nil {
		if !eris.Is(err, store.ErrNotFound) {
			result.Steps["scorer"] = model.StepResult{Success: false, Error: shortErr(err)}
			result.Status = model.StatusScorerFailed
			return result
		}
		rubric = nil
	}

	eval, err := o.engine.Evaluate(ctx, jobID, candidateID, resume, rubric)
	if err != nil {
		result.Steps["scorer"] = model.StepResult{Success: false, Error: shortErr(err)}
		result.Status = model.StatusScorerFailed
		log.Warn("gestalt evaluation failed", zap.Error(err))
		return result
	}
	result.Steps["scorer"] = model.StepResult{Success: true}
	result.Decision = eval.Decision
	if !dryRun {
		if err := o.store.SaveEvaluation(jobID, candidateID, eval); err != nil {
			result.Steps["scorer"] = model.StepResult{Success: false, Error: shortErr(err)}
			result.Status = model.StatusScorerFailed
			return result
		}
	}

	switch eval.Decision {
	case model.DecisionMaybe:
		if o.clarify == nil {
			result.Steps["clarification"] = model.StepResult{Skipped: true, Reason: "clarification disabled"}
		} else if _, err := o.clarify.Initiate(ctx, jobID, candidateID, dryRun); err != nil {
			result.Steps["clarification"] = model.StepResult{Success: false, Error: shortErr(err)}
			log.Warn("clarification initiation failed", zap.Error(err))
		} else {
			result.Steps["clarification"] = model.StepResult{Success: true}
		}
		result.Status = model.StatusClarificationPending
		return result

	case model.DecisionBackupList:
		if o.backup != nil && !dryRun {
			if _, err := o.backup.Add(jobID, candidateID, "too many clarifiable concerns", eval); err != nil {
				result.Steps["backup"] = model.StepResult{Success: false, Error: shortErr(err)}
			} else {
				result.Steps["backup"] = model.StepResult{Success: true}
			}
		}
		result.Status = model.StatusBackupList
		return result
	}

	if o.dossier == nil {
		result.Steps["dossier"] = model.StepResult{Skipped: true, Reason: "dossier disabled"}
		result.Status = model.StatusPartialComplete
		return result
	}
	if dryRun {
		result.Steps["dossier"] = model.StepResult{Skipped: true, Reason: "dry run"}
		result.Status = model.StatusComplete
		return result
	}
	if _, err := o.dossier.Generate(jobID, candidateID); err != nil {
		result.Steps["dossier"] = model.StepResult{Success: false, Error: shortErr(err)}
		result.Status = model.StatusDossierFailed
		return result
	}
	result.Steps["dossier"] = model.StepResult{Success: true}
	result.Status = model.StatusComplete
	return result
}

func tally(results []model.CandidateResult) model.RunTotals {
	totals := model.RunTotals{
		Total:             len(results),
		DecisionBreakdown: map[model.Decision]int{},
	}
	for _, r := range results {
		switch r.Status {
		case model.StatusComplete, model.StatusRejectedQuickTest, model.StatusBackupList:
			totals.Complete++
		case model.StatusPartialComplete:
			totals.Partial++
		case model.StatusClarificationPending:
			totals.ClarificationPending++
		default:
			totals.Failed++
		}
		// Decisions come back from artifacts on disk, so an edited or
		// corrupted value buckets to UNKNOWN rather than polluting the
		// breakdown with a stray key.
		decision, err := model.ParseDecision(string(r.Decision))
		if err != nil {
			decision = model.DecisionUnknown
		}
		totals.DecisionBreakdown[decision]++
	}
	return totals
}

func shortErr(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i > 0 {
		msg = msg[:i]
	}
	return msg
}
