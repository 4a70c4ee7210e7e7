package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"greenwise/internal/memory"
)

// AgentTask names a registered agent and the input to hand it.
type AgentTask struct {
	Agent string
	Input map[string]any
}

// TaskResult pairs an agent name with its output or error. Errors are carried
// per task so one failing agent never hides the others' results.
type TaskResult struct {
	Agent  string
	Output map[string]any
	Err    error
}

// Orchestrator sequences the Data Scout and EcoPlanner agents into cycles and
// runs ad-hoc agent fan-outs.
type Orchestrator struct {
	scout    *DataScout
	planner  *EcoPlanner
	agents   map[string]Runner
	store    Store
	sessions *memory.SessionManager
	log      zerolog.Logger
	now      func() time.Time
}

func NewOrchestrator(scout *DataScout, planner *EcoPlanner, store Store, sessions *memory.SessionManager, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		scout:    scout,
		planner:  planner,
		agents:   make(map[string]Runner),
		store:    store,
		sessions: sessions,
		log:      log.With().Str("component", "orchestrator").Logger(),
		now:      time.Now,
	}
	o.AddAgent(scout)
	o.AddAgent(planner)
	return o
}

// AddAgent registers a runner for ParallelExecution. Later registrations with
// the same name replace earlier ones.
func (o *Orchestrator) AddAgent(r Runner) {
	o.agents[r.Name()] = r
}

func (o *Orchestrator) RemoveAgent(name string) {
	delete(o.agents, name)
}

// RunCycle executes one full scout-then-plan pass. Failures become a "failed"
// CycleResult rather than an error so callers always get a result record.
func (o *Orchestrator) RunCycle(ctx context.Context, initial map[string]any) CycleResult {
	session := o.sessions.Create("orchestrator")
	log := o.log.With().Str("session_id", session.ID).Logger()
	log.Info().Msg("starting orchestration cycle")

	pkg, err := o.scout.Execute(ctx, initial)
	if err != nil {
		return o.failCycle(log, fmt.Errorf("data scout: %w", err))
	}

	plan, err := o.planner.Execute(ctx, pkg)
	if err != nil {
		return o.failCycle(log, fmt.Errorf("ecoplanner: %w", err))
	}

	result := CycleResult{
		Status:    "completed",
		Timestamp: o.now(),
		Plan:      &plan,
	}
	record := map[string]any{
		"timestamp":  result.Timestamp.UTC().Format(time.RFC3339),
		"session_id": session.ID,
		"context":    pkg,
		"plan":       plan,
		"status":     result.Status,
	}
	if err := o.store.StoreOrchestrationResult(ctx, record); err != nil {
		return o.failCycle(log, fmt.Errorf("store orchestration result: %w", err))
	}

	log.Info().
		Int("recommendations", len(plan.Recommendations)).
		Float64("co2_savings_kg", plan.TotalCO2SavingsKg).
		Msg("orchestration cycle completed")
	return result
}

func (o *Orchestrator) failCycle(log zerolog.Logger, err error) CycleResult {
	log.Error().Err(err).Msg("orchestration cycle failed")
	return CycleResult{
		Status:    "failed",
		Error:     err.Error(),
		Timestamp: o.now(),
	}
}

// ParallelExecution runs the named tasks concurrently and returns one result
// per task, in task order. Unknown agents produce an error result; nothing
// here aborts the group.
func (o *Orchestrator) ParallelExecution(ctx context.Context, tasks []AgentTask) []TaskResult {
	results := make([]TaskResult, len(tasks))
	g, ctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		results[i].Agent = task.Agent
		runner, ok := o.agents[task.Agent]
		if !ok {
			results[i].Err = fmt.Errorf("unknown agent %q", task.Agent)
			continue
		}
		g.Go(func() error {
			out, err := runner.RunTask(ctx, task.Input)
			results[i].Output = out
			results[i].Err = err
			return nil
		})
	}
	g.Wait()
	return results
}
