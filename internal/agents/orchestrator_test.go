package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"greenwise/internal/llm"
	"greenwise/internal/memory"
)

func newTestOrchestrator(t *testing.T, store *fakeStore, scoutSource staticSource, client PlannerLLM) *Orchestrator {
	t.Helper()
	scout := newTestScout(scoutSource, store)
	planner := newTestPlanner(t, client, store, 10)
	return NewOrchestrator(scout, planner, store, memory.NewSessionManager(), zerolog.Nop())
}

func TestRunCycleCompletes(t *testing.T) {
	store := &fakeStore{}
	source := staticSource{data: energyData(map[string][2]float64{
		"facility_a": {600, 450},
		"facility_b": {700, 750},
	})}
	client := &staticLLM{result: llm.Result{Text: "Error: offline", Err: "offline"}}
	o := newTestOrchestrator(t, store, source, client)

	result := o.RunCycle(context.Background(), nil)
	if result.Status != "completed" {
		t.Fatalf("status=%q error=%q", result.Status, result.Error)
	}
	if result.Plan == nil || len(result.Plan.Recommendations) == 0 {
		t.Fatal("completed cycle carries no plan")
	}
	if len(store.orchestrations) != 1 {
		t.Fatalf("orchestration records=%d want=1", len(store.orchestrations))
	}
	record := store.orchestrations[0].(map[string]any)
	if record["status"] != "completed" {
		t.Fatalf("record status=%v", record["status"])
	}
	if record["session_id"] == "" {
		t.Fatal("record missing session id")
	}
}

func TestRunCycleConvertsScoutFailure(t *testing.T) {
	store := &fakeStore{}
	source := staticSource{err: errors.New("gateway down")}
	o := newTestOrchestrator(t, store, source, &staticLLM{})

	result := o.RunCycle(context.Background(), nil)
	if result.Status != "failed" {
		t.Fatalf("status=%q want=failed", result.Status)
	}
	if result.Error == "" || result.Plan != nil {
		t.Fatalf("failed result malformed: %+v", result)
	}
	if len(store.orchestrations) != 0 {
		t.Fatal("failed cycle should not store an orchestration record")
	}
}

func TestRunCycleConvertsPlannerFailure(t *testing.T) {
	store := &fakeStore{planErr: errors.New("disk full")}
	source := staticSource{data: energyData(map[string][2]float64{"facility_a": {500, 450}})}
	o := newTestOrchestrator(t, store, source, &staticLLM{result: llm.Result{Err: "offline", Text: "Error: offline"}})

	result := o.RunCycle(context.Background(), nil)
	if result.Status != "failed" {
		t.Fatalf("status=%q want=failed", result.Status)
	}
}

func TestParallelExecutionCollectsAllResults(t *testing.T) {
	store := &fakeStore{}
	source := staticSource{data: energyData(map[string][2]float64{"facility_a": {500, 450}})}
	o := newTestOrchestrator(t, store, source, &staticLLM{result: llm.Result{Err: "offline", Text: "Error: offline"}})

	results := o.ParallelExecution(context.Background(), []AgentTask{
		{Agent: "DataScout"},
		{Agent: "nonexistent"},
	})
	if len(results) != 2 {
		t.Fatalf("results=%d want=2", len(results))
	}
	if results[0].Agent != "DataScout" || results[0].Err != nil {
		t.Fatalf("scout result: %+v", results[0])
	}
	if _, ok := results[0].Output["context_package"]; !ok {
		t.Fatal("scout output missing context package")
	}
	if results[1].Err == nil {
		t.Fatal("unknown agent should produce an error result")
	}
}

func TestAddAndRemoveAgent(t *testing.T) {
	store := &fakeStore{}
	source := staticSource{data: energyData(nil)}
	o := newTestOrchestrator(t, store, source, &staticLLM{})

	o.RemoveAgent("EcoPlanner")
	results := o.ParallelExecution(context.Background(), []AgentTask{{Agent: "EcoPlanner"}})
	if results[0].Err == nil {
		t.Fatal("removed agent should be unknown")
	}
}
