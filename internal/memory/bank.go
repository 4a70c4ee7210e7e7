// Package memory is the durable store for context snapshots, plans, feedback
// and agent events. Payload columns hold opaque JSON blobs; every call uses a
// short-lived statement and no transaction spans multiple logical writes.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Defaults returned when no snapshots exist to average over.
const (
	DefaultBaselineEnergyKWh   = 1000.0
	DefaultBaselineEmissionsKg = 500.0
)

const schema = `
CREATE TABLE IF NOT EXISTS context_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS plans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	recommendations TEXT NOT NULL,
	total_co2_savings REAL,
	status TEXT DEFAULT 'pending'
);
CREATE TABLE IF NOT EXISTS feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	plan_id INTEGER,
	recommendation_id TEXT,
	action TEXT,
	user_notes TEXT,
	timestamp TEXT,
	FOREIGN KEY (plan_id) REFERENCES plans(id)
);
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	agent_name TEXT,
	action TEXT,
	details TEXT
);
CREATE TABLE IF NOT EXISTS orchestration_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	data TEXT NOT NULL
);
`

type StoredPlan struct {
	ID              int64           `json:"id"`
	Timestamp       string          `json:"timestamp"`
	Recommendations json.RawMessage `json:"recommendations"`
	TotalCO2Savings float64         `json:"total_co2_savings_kg"`
	Status          string          `json:"status"`
}

type Event struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	AgentName string `json:"agent_name"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

type Bank struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

func Open(path string, log zerolog.Logger) (*Bank, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create memory dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init memory schema: %w", err)
	}
	return &Bank{
		db:  db,
		log: log.With().Str("component", "memory-bank").Logger(),
		now: time.Now,
	}, nil
}

func (b *Bank) Close() error { return b.db.Close() }

// StoreContext persists a context snapshot as opaque JSON.
func (b *Bank) StoreContext(ctx context.Context, ts time.Time, payload any) (int64, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal context snapshot: %w", err)
	}
	res, err := b.db.ExecContext(ctx,
		`INSERT INTO context_snapshots (timestamp, data) VALUES (?, ?)`,
		ts.UTC().Format(time.RFC3339), string(data))
	if err != nil {
		return 0, fmt.Errorf("store context snapshot: %w", err)
	}
	return res.LastInsertId()
}

// StorePlan persists a plan and returns its assigned id.
func (b *Bank) StorePlan(ctx context.Context, ts time.Time, recommendations any, totalCO2 float64) (int64, error) {
	recs, err := json.Marshal(recommendations)
	if err != nil {
		return 0, fmt.Errorf("marshal recommendations: %w", err)
	}
	res, err := b.db.ExecContext(ctx,
		`INSERT INTO plans (timestamp, recommendations, total_co2_savings, status) VALUES (?, ?, ?, 'pending')`,
		ts.UTC().Format(time.RFC3339), string(recs), totalCO2)
	if err != nil {
		return 0, fmt.Errorf("store plan: %w", err)
	}
	return res.LastInsertId()
}

func (b *Bank) LogEvent(ctx context.Context, agentName, action string, details any) error {
	d, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal event details: %w", err)
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO events (timestamp, agent_name, action, details) VALUES (?, ?, ?, ?)`,
		b.now().UTC().Format(time.RFC3339), agentName, action, string(d))
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// GetBaselineMetrics averages snapshots from the last 30 days; when none
// exist it falls back to fixed defaults rather than failing.
func (b *Bank) GetBaselineMetrics(ctx context.Context) (map[string]float64, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT data FROM context_snapshots
		 WHERE datetime(timestamp) > datetime('now', '-30 days')
		 ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("query baseline snapshots: %w", err)
	}
	defer rows.Close()

	var (
		totalEnergy    float64
		totalEmissions float64
		count          int
	)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan baseline snapshot: %w", err)
		}
		var snapshot struct {
			OperationalSummary struct {
				TotalEnergyKWh      float64 `json:"total_energy_kwh"`
				TotalEmissionsKgCO2 float64 `json:"total_emissions_kg_co2"`
			} `json:"operational_summary"`
		}
		if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
			b.log.Warn().Err(err).Msg("skipping unparseable context snapshot")
			continue
		}
		totalEnergy += snapshot.OperationalSummary.TotalEnergyKWh
		totalEmissions += snapshot.OperationalSummary.TotalEmissionsKgCO2
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate baseline snapshots: %w", err)
	}
	if count == 0 {
		return map[string]float64{
			"energy_kwh":   DefaultBaselineEnergyKWh,
			"emissions_kg": DefaultBaselineEmissionsKg,
		}, nil
	}
	return map[string]float64{
		"energy_kwh":   totalEnergy / float64(count),
		"emissions_kg": totalEmissions / float64(count),
	}, nil
}

func (b *Bank) StoreFeedback(ctx context.Context, planID int64, recID, action, notes string) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO feedback (plan_id, recommendation_id, action, user_notes, timestamp) VALUES (?, ?, ?, ?, ?)`,
		planID, recID, action, notes, b.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store feedback: %w", err)
	}
	return nil
}

// GetRecentPlans returns up to limit plans, newest first.
func (b *Bank) GetRecentPlans(ctx context.Context, limit int) ([]StoredPlan, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, timestamp, recommendations, total_co2_savings, status
		 FROM plans ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent plans: %w", err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		var (
			p    StoredPlan
			recs string
			co2  sql.NullFloat64
		)
		if err := rows.Scan(&p.ID, &p.Timestamp, &recs, &co2, &p.Status); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		p.Recommendations = json.RawMessage(recs)
		p.TotalCO2Savings = co2.Float64
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// PlanHistory summarizes recent plans as history entries for prompt
// assembly, oldest first.
func (b *Bank) PlanHistory(ctx context.Context, limit int) ([]PlanSummary, error) {
	plans, err := b.GetRecentPlans(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PlanSummary, 0, len(plans))
	for i := len(plans) - 1; i >= 0; i-- {
		p := plans[i]
		var recs []json.RawMessage
		_ = json.Unmarshal(p.Recommendations, &recs)
		out = append(out, PlanSummary{
			Timestamp: p.Timestamp,
			Summary:   fmt.Sprintf("%d recommendations, %.1f kg CO2 savings estimated", len(recs), p.TotalCO2Savings),
		})
	}
	return out, nil
}

type PlanSummary struct {
	Timestamp string
	Summary   string
}

func (b *Bank) StoreOrchestrationResult(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal orchestration result: %w", err)
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO orchestration_results (timestamp, data) VALUES (?, ?)`,
		b.now().UTC().Format(time.RFC3339), string(data))
	if err != nil {
		return fmt.Errorf("store orchestration result: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit logged agent events, newest first.
func (b *Bank) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, timestamp, agent_name, action, details
		 FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.AgentName, &e.Action, &e.Details); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
