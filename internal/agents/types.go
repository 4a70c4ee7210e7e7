// Package agents implements the Data Scout -> EcoPlanner pipeline and the
// orchestrator that sequences it.
package agents

import (
	"context"
	"time"

	"greenwise/internal/llm"
	"greenwise/internal/memory"
	"greenwise/internal/telemetry"
)

// Anomaly thresholds applied uniformly per facility.
const (
	anomalyThreshold  = 1.15 // current > baseline * 1.15 emits an anomaly
	severityThreshold = 1.30 // current > baseline * 1.30 marks it high
	criticalThreshold = 1.20 // current > baseline * 1.20 lists the facility as critical
)

const (
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

type Anomaly struct {
	Type         string  `json:"type"`
	Facility     string  `json:"facility"`
	Current      float64 `json:"current"`
	Baseline     float64 `json:"baseline"`
	DeviationPct float64 `json:"deviation_pct"`
	Severity     string  `json:"severity"`
}

type EfficiencyMetrics struct {
	EnergyIntensity     float64 `json:"energy_intensity"`     // kWh per unit output
	CapacityUtilization float64 `json:"capacity_utilization"`
}

type OperationalSummary struct {
	TotalEnergyKWh      float64           `json:"total_energy_kwh"`
	TotalEmissionsKgCO2 float64           `json:"total_emissions_kg_co2"`
	AnomalyCount        int               `json:"anomaly_count"`
	CriticalFacilities  []string          `json:"critical_facilities"`
	Efficiency          EfficiencyMetrics `json:"efficiency_metrics"`
}

type ExternalContext struct {
	Weather             *telemetry.Forecast `json:"weather,omitempty"`
	GridCarbonIntensity float64             `json:"grid_carbon_intensity"` // kg CO2/kWh
}

// ContextPackage is the bundle Data Scout hands to EcoPlanner. It is
// immutable once produced.
type ContextPackage struct {
	Timestamp          time.Time          `json:"timestamp"`
	OperationalSummary OperationalSummary `json:"operational_summary"`
	Anomalies          []Anomaly          `json:"anomalies"`
	ExternalContext    ExternalContext    `json:"external_context"`
	HistoricalBaseline map[string]float64 `json:"historical_baseline"`
}

type Recommendation struct {
	ID                string         `json:"id"`
	Description       string         `json:"description"`
	EnergySavingsKWh  float64        `json:"energy_savings_kwh"`
	CO2SavingsKg      float64        `json:"co2_savings_kg"`
	Complexity        string         `json:"complexity"` // low | medium | high
	Timeline          string         `json:"timeline"`   // immediate | short-term | long-term
	Category          string         `json:"category"`
	Rationale         string         `json:"rationale"`
	RouteOptimization map[string]any `json:"route_optimization,omitempty"`
}

// Plan is the finalized, ranked, size-bounded recommendation set for one
// cycle. Only PlanID mutates after creation (assigned on persist).
type Plan struct {
	Timestamp              time.Time        `json:"timestamp"`
	Recommendations        []Recommendation `json:"recommendations"`
	TotalCO2SavingsKg      float64          `json:"total_co2_savings_kg"`
	TotalEnergySavingsKWh  float64          `json:"total_energy_savings_kwh"`
	ImplementationPriority string           `json:"implementation_priority"` // high iff total CO2 > 100
	PlanID                 int64            `json:"plan_id,omitempty"`
}

// CycleResult is what RunCycle hands back; failures are converted here, not
// raised.
type CycleResult struct {
	Status    string    `json:"status"` // completed | failed
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Plan      *Plan     `json:"plan,omitempty"`
}

// Store is the slice of the memory bank the agents depend on.
type Store interface {
	StoreContext(ctx context.Context, ts time.Time, payload any) (int64, error)
	StorePlan(ctx context.Context, ts time.Time, recommendations any, totalCO2 float64) (int64, error)
	LogEvent(ctx context.Context, agentName, action string, details any) error
	GetBaselineMetrics(ctx context.Context) (map[string]float64, error)
	PlanHistory(ctx context.Context, limit int) ([]memory.PlanSummary, error)
	StoreOrchestrationResult(ctx context.Context, payload any) error
}

// EventSink mirrors action events to an external bus; nil disables it.
type EventSink interface {
	Publish(ctx context.Context, agent, action string, details map[string]any) error
}

// PlannerLLM is the chat-completion boundary EcoPlanner calls. A Result with
// a non-empty Err means "no usable recommendations", never a Go error.
type PlannerLLM interface {
	GenerateWithTools(ctx context.Context, prompt string, tools []llm.ToolDecl, temperature float64) llm.Result
}

// Runner is the generic task surface used by the orchestrator's parallel
// entry point; the typed Execute methods remain the primary API.
type Runner interface {
	Name() string
	RunTask(ctx context.Context, input map[string]any) (map[string]any, error)
}
