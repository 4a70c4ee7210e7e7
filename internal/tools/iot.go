package tools

import (
	"context"

	"greenwise/internal/telemetry"
)

// IoTReadings exposes a telemetry source as a model-invocable tool so the
// planner can pull fresh readings mid-generation.
type IoTReadings struct {
	source telemetry.Source
}

func NewIoTReadings(source telemetry.Source) *IoTReadings {
	return &IoTReadings{source: source}
}

func (t *IoTReadings) Name() string { return "iot_simulator" }

func (t *IoTReadings) Description() string {
	return "Get simulated IoT sensor readings from facilities"
}

func (t *IoTReadings) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"facility_id": map[string]any{
				"type":        "string",
				"description": "Specific facility ID to query",
				"enum":        []string{"facility_a", "facility_b", "facility_c"},
			},
		},
	}
}

func (t *IoTReadings) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	data, err := t.source.LatestReadings(ctx)
	if err != nil {
		return nil, err
	}
	if id := stringArg(args, "facility_id"); id != "" {
		return map[string]any{
			"facility_id":     id,
			"energy":          data.Energy[id],
			"facility_status": data.Facility[id],
		}, nil
	}
	return map[string]any{
		"energy_consumption": data.Energy,
		"production_metrics": data.Production,
		"facility_status":    data.Facility,
	}, nil
}
