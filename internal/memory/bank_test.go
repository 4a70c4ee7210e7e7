package memory

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testBank(t *testing.T) *Bank {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "memory.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

type snapshot struct {
	OperationalSummary summaryFields `json:"operational_summary"`
}

type summaryFields struct {
	TotalEnergyKWh      float64 `json:"total_energy_kwh"`
	TotalEmissionsKgCO2 float64 `json:"total_emissions_kg_co2"`
}

func TestStorePlanAssignsSequentialIDs(t *testing.T) {
	b := testBank(t)
	ctx := context.Background()
	recs := []map[string]any{{"id": "hvac_scheduling"}}

	first, err := b.StorePlan(ctx, time.Now(), recs, 80.0)
	if err != nil {
		t.Fatalf("StorePlan returned error: %v", err)
	}
	second, err := b.StorePlan(ctx, time.Now(), recs, 95.0)
	if err != nil {
		t.Fatalf("StorePlan returned error: %v", err)
	}
	if first != 1 || second != 2 {
		t.Fatalf("ids=%d,%d want=1,2", first, second)
	}
}

func TestBaselineDefaultsWhenEmpty(t *testing.T) {
	b := testBank(t)
	baseline, err := b.GetBaselineMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetBaselineMetrics returned error: %v", err)
	}
	if baseline["energy_kwh"] != DefaultBaselineEnergyKWh {
		t.Fatalf("energy_kwh=%v", baseline["energy_kwh"])
	}
	if baseline["emissions_kg"] != DefaultBaselineEmissionsKg {
		t.Fatalf("emissions_kg=%v", baseline["emissions_kg"])
	}
}

func TestBaselineAveragesRecentSnapshots(t *testing.T) {
	b := testBank(t)
	ctx := context.Background()
	now := time.Now()

	for _, energy := range []float64{1000, 1200} {
		_, err := b.StoreContext(ctx, now, snapshot{
			OperationalSummary: summaryFields{TotalEnergyKWh: energy, TotalEmissionsKgCO2: energy / 2},
		})
		if err != nil {
			t.Fatalf("StoreContext returned error: %v", err)
		}
	}
	// Old snapshots fall outside the 30-day window.
	if _, err := b.StoreContext(ctx, now.AddDate(0, -2, 0), snapshot{
		OperationalSummary: summaryFields{TotalEnergyKWh: 9999},
	}); err != nil {
		t.Fatalf("StoreContext returned error: %v", err)
	}

	baseline, err := b.GetBaselineMetrics(ctx)
	if err != nil {
		t.Fatalf("GetBaselineMetrics returned error: %v", err)
	}
	if got := baseline["energy_kwh"]; math.Abs(got-1100) > 1e-9 {
		t.Fatalf("energy_kwh=%v want=1100", got)
	}
	if got := baseline["emissions_kg"]; math.Abs(got-550) > 1e-9 {
		t.Fatalf("emissions_kg=%v want=550", got)
	}
}

func TestGetRecentPlansNewestFirst(t *testing.T) {
	b := testBank(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := b.StorePlan(ctx, base.Add(time.Duration(i)*time.Hour), []string{}, float64(i)); err != nil {
			t.Fatalf("StorePlan returned error: %v", err)
		}
	}

	plans, err := b.GetRecentPlans(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecentPlans returned error: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("plans=%d want=2", len(plans))
	}
	if plans[0].TotalCO2Savings != 2 || plans[1].TotalCO2Savings != 1 {
		t.Fatalf("order wrong: %v, %v", plans[0].TotalCO2Savings, plans[1].TotalCO2Savings)
	}
	if plans[0].Status != "pending" {
		t.Fatalf("status=%q", plans[0].Status)
	}
}

func TestPlanHistoryOldestFirstSummaries(t *testing.T) {
	b := testBank(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	recs := []map[string]any{{"id": "a"}, {"id": "b"}}
	if _, err := b.StorePlan(ctx, base, recs, 120.5); err != nil {
		t.Fatal(err)
	}
	if _, err := b.StorePlan(ctx, base.Add(time.Hour), recs[:1], 30.0); err != nil {
		t.Fatal(err)
	}

	history, err := b.PlanHistory(ctx, 5)
	if err != nil {
		t.Fatalf("PlanHistory returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history=%d want=2", len(history))
	}
	if history[0].Summary != "2 recommendations, 120.5 kg CO2 savings estimated" {
		t.Fatalf("summary[0]=%q", history[0].Summary)
	}
	if !strings.HasPrefix(history[1].Summary, "1 recommendations") {
		t.Fatalf("summary[1]=%q", history[1].Summary)
	}
	if !(history[0].Timestamp < history[1].Timestamp) {
		t.Fatalf("history not oldest first: %q then %q", history[0].Timestamp, history[1].Timestamp)
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	b := testBank(t)
	ctx := context.Background()

	planID, err := b.StorePlan(ctx, time.Now(), []string{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.StoreFeedback(ctx, planID, "hvac_scheduling", "accepted", "works"); err != nil {
		t.Fatalf("StoreFeedback returned error: %v", err)
	}

	var action string
	row := b.db.QueryRowContext(ctx, `SELECT action FROM feedback WHERE plan_id = ?`, planID)
	if err := row.Scan(&action); err != nil {
		t.Fatalf("scan feedback: %v", err)
	}
	if action != "accepted" {
		t.Fatalf("action=%q", action)
	}
}

func TestEventsNewestFirst(t *testing.T) {
	b := testBank(t)
	ctx := context.Background()

	for _, action := range []string{"context_prepared", "plan_generated"} {
		if err := b.LogEvent(ctx, "DataScout", action, map[string]any{"n": 1}); err != nil {
			t.Fatalf("LogEvent returned error: %v", err)
		}
	}

	events, err := b.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEvents returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events=%d want=2", len(events))
	}
	if events[0].Action != "plan_generated" {
		t.Fatalf("newest event=%q", events[0].Action)
	}
	if events[0].AgentName != "DataScout" {
		t.Fatalf("agent=%q", events[0].AgentName)
	}
}

func TestStoreOrchestrationResult(t *testing.T) {
	b := testBank(t)
	ctx := context.Background()

	if err := b.StoreOrchestrationResult(ctx, map[string]any{"status": "completed"}); err != nil {
		t.Fatalf("StoreOrchestrationResult returned error: %v", err)
	}
	var count int
	if err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orchestration_results`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("count=%d want=1", count)
	}
}
