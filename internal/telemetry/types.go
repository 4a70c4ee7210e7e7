// Package telemetry defines facility reading shapes and the sources that
// produce them. Real deployments wire IoT gateways behind Source; the
// bundled simulator stands in for them in demos and tests.
package telemetry

import "context"

// EnergyReading is one facility's electricity picture for the cycle.
type EnergyReading struct {
	CurrentKWh  float64            `json:"current_kwh"`
	BaselineKWh float64            `json:"baseline_kwh"`
	Channels    map[string]float64 `json:"channels,omitempty"` // hvac_kwh, lighting_kwh, ...
}

type ProductionReading struct {
	UnitsProduced int     `json:"units_produced"`
	Efficiency    float64 `json:"efficiency"`
}

type FacilityStatus struct {
	TemperatureC float64 `json:"temperature_c"`
	Occupancy    int     `json:"occupancy"`
}

// OperationalData bundles everything a scouting cycle ingests.
type OperationalData struct {
	Energy     map[string]EnergyReading     `json:"energy_consumption"`
	Emissions  map[string]float64           `json:"emissions"`
	Production map[string]ProductionReading `json:"production_metrics"`
	Facility   map[string]FacilityStatus    `json:"facility_status"`
}

// Source delivers the latest facility readings.
type Source interface {
	LatestReadings(ctx context.Context) (OperationalData, error)
}

// Forecast is the weather snapshot attached to external context. Optional:
// a nil forecast means no weather capability is wired.
type Forecast struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_c"`
}

type WeatherSource interface {
	Forecast(ctx context.Context) (*Forecast, error)
}
