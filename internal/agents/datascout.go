package agents

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"greenwise/internal/telemetry"
)

// Grid carbon intensity defaults used when no live intensity feed is wired:
// solar peak hours run cleaner than the rest of the day.
const (
	gridIntensitySolarPeak = 0.35 // kg CO2/kWh, hours 10-16 inclusive
	gridIntensityOffPeak   = 0.55
)

// DataScout ingests facility readings, detects anomalies, and assembles the
// context package for the planner.
type DataScout struct {
	name           string
	source         telemetry.Source
	weather        telemetry.WeatherSource // optional
	store          Store
	sink           EventSink // optional
	emissionFactor float64   // kg CO2/kWh
	log            zerolog.Logger
	now            func() time.Time
}

func NewDataScout(source telemetry.Source, weather telemetry.WeatherSource, store Store, sink EventSink, emissionFactor float64, log zerolog.Logger) *DataScout {
	if source == nil {
		source = telemetry.NewSimulator(time.Now().UnixNano())
	}
	return &DataScout{
		name:           "DataScout",
		source:         source,
		weather:        weather,
		store:          store,
		sink:           sink,
		emissionFactor: emissionFactor,
		log:            log.With().Str("agent", "DataScout").Logger(),
		now:            time.Now,
	}
}

func (s *DataScout) Name() string { return s.name }

// Execute runs one scouting cycle: ingest, detect anomalies, summarize,
// fetch external context, persist the package. Sub-step errors propagate to
// the orchestrator, which converts them into a failed-cycle result.
func (s *DataScout) Execute(ctx context.Context, _ map[string]any) (ContextPackage, error) {
	s.log.Info().Msg("starting data scouting cycle")

	data, err := s.source.LatestReadings(ctx)
	if err != nil {
		return ContextPackage{}, fmt.Errorf("ingest readings: %w", err)
	}

	anomalies := detectAnomalies(data)
	summary := s.summarize(data, anomalies)
	external := s.externalContext(ctx)

	baseline, err := s.store.GetBaselineMetrics(ctx)
	if err != nil {
		return ContextPackage{}, fmt.Errorf("fetch baseline metrics: %w", err)
	}

	pkg := ContextPackage{
		Timestamp:          s.now(),
		OperationalSummary: summary,
		Anomalies:          anomalies,
		ExternalContext:    external,
		HistoricalBaseline: baseline,
	}

	if _, err := s.store.StoreContext(ctx, pkg.Timestamp, pkg); err != nil {
		return ContextPackage{}, fmt.Errorf("store context snapshot: %w", err)
	}

	s.logAction(ctx, "context_prepared", map[string]any{
		"anomaly_count": len(anomalies),
		"summary_metrics": []string{
			"total_energy_kwh", "total_emissions_kg_co2", "anomaly_count",
			"critical_facilities", "efficiency_metrics",
		},
	})
	return pkg, nil
}

// RunTask adapts Execute to the orchestrator's generic task surface.
func (s *DataScout) RunTask(ctx context.Context, input map[string]any) (map[string]any, error) {
	pkg, err := s.Execute(ctx, input)
	if err != nil {
		return nil, err
	}
	return map[string]any{"context_package": pkg}, nil
}

// detectAnomalies flags facilities whose current draw exceeds 1.15x their
// baseline. Facilities are walked in sorted-name order so anomaly insertion
// order is deterministic.
func detectAnomalies(data telemetry.OperationalData) []Anomaly {
	names := make([]string, 0, len(data.Energy))
	for name := range data.Energy {
		names = append(names, name)
	}
	sort.Strings(names)

	var anomalies []Anomaly
	for _, facility := range names {
		reading := data.Energy[facility]
		current, baseline := reading.CurrentKWh, reading.BaselineKWh
		if baseline <= 0 || current <= baseline*anomalyThreshold {
			continue
		}
		severity := SeverityMedium
		if current > baseline*severityThreshold {
			severity = SeverityHigh
		}
		anomalies = append(anomalies, Anomaly{
			Type:         "energy_spike",
			Facility:     facility,
			Current:      current,
			Baseline:     baseline,
			DeviationPct: (current - baseline) / baseline * 100,
			Severity:     severity,
		})
	}
	return anomalies
}

func (s *DataScout) summarize(data telemetry.OperationalData, anomalies []Anomaly) OperationalSummary {
	totalEnergy := sumEnergy(data)
	return OperationalSummary{
		TotalEnergyKWh:      totalEnergy,
		TotalEmissionsKgCO2: totalEnergy * s.emissionFactor,
		AnomalyCount:        len(anomalies),
		CriticalFacilities:  criticalFacilities(data),
		Efficiency: EfficiencyMetrics{
			EnergyIntensity:     1.2,
			CapacityUtilization: 0.85,
		},
	}
}

func sumEnergy(data telemetry.OperationalData) float64 {
	var total float64
	for _, reading := range data.Energy {
		total += reading.CurrentKWh
	}
	return total
}

func criticalFacilities(data telemetry.OperationalData) []string {
	var names []string
	for name, reading := range data.Energy {
		if reading.BaselineKWh > 0 && reading.CurrentKWh > reading.BaselineKWh*criticalThreshold {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *DataScout) externalContext(ctx context.Context) ExternalContext {
	external := ExternalContext{
		GridCarbonIntensity: gridIntensity(s.now().Hour()),
	}
	if s.weather != nil {
		forecast, err := s.weather.Forecast(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("weather forecast unavailable")
		} else {
			external.Weather = forecast
		}
	}
	return external
}

// gridIntensity models time-of-day variation when no live feed exists.
func gridIntensity(hour int) float64 {
	if hour >= 10 && hour <= 16 {
		return gridIntensitySolarPeak
	}
	return gridIntensityOffPeak
}

func (s *DataScout) logAction(ctx context.Context, action string, details map[string]any) {
	s.log.Info().Str("action", action).Fields(details).Msg("agent action")
	if err := s.store.LogEvent(ctx, s.name, action, details); err != nil {
		s.log.Warn().Err(err).Msg("failed to log event")
	}
	if s.sink != nil {
		if err := s.sink.Publish(ctx, s.name, action, details); err != nil {
			s.log.Warn().Err(err).Msg("failed to mirror event")
		}
	}
}
