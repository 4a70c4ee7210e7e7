package tools

import (
	"context"
	"strings"
)

// Fuel factors in kg CO2 per liter; unknown fuels get the default.
const (
	defaultFuelFactor = 2.5
)

// EmissionsCalculator converts energy and fuel consumption into CO2 mass
// with a per-source breakdown.
type EmissionsCalculator struct {
	electricityFactor float64 // kg CO2/kWh
	dieselFactor      float64
	gasolineFactor    float64
}

func NewEmissionsCalculator(electricity, diesel, gasoline float64) *EmissionsCalculator {
	return &EmissionsCalculator{
		electricityFactor: electricity,
		dieselFactor:      diesel,
		gasolineFactor:    gasoline,
	}
}

func (c *EmissionsCalculator) Name() string { return "emissions_calculator" }

func (c *EmissionsCalculator) Description() string {
	return "Calculate CO2 emissions from energy consumption or fuel usage"
}

func (c *EmissionsCalculator) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"energy_kwh": map[string]any{
				"type":        "number",
				"description": "Electricity consumption in kWh",
			},
			"fuel_type": map[string]any{
				"type":        "string",
				"enum":        []string{"diesel", "gasoline"},
				"description": "Type of fuel",
			},
			"fuel_liters": map[string]any{
				"type":        "number",
				"description": "Fuel consumption in liters",
			},
		},
	}
}

func (c *EmissionsCalculator) Execute(_ context.Context, args map[string]any) (map[string]any, error) {
	energyKWh := floatArg(args, "energy_kwh")
	fuelType := stringArg(args, "fuel_type")
	fuelLiters := floatArg(args, "fuel_liters")

	var total float64
	breakdown := map[string]any{}

	if energyKWh > 0 {
		co2 := energyKWh * c.electricityFactor
		total += co2
		breakdown["electricity"] = map[string]any{
			"kwh":    energyKWh,
			"co2_kg": co2,
			"factor": c.electricityFactor,
		}
	}

	if fuelType != "" && fuelLiters > 0 {
		var factor float64
		switch strings.ToLower(fuelType) {
		case "diesel":
			factor = c.dieselFactor
		case "gasoline":
			factor = c.gasolineFactor
		default:
			factor = defaultFuelFactor
		}
		co2 := fuelLiters * factor
		total += co2
		breakdown[fuelType] = map[string]any{
			"liters": fuelLiters,
			"co2_kg": co2,
			"factor": factor,
		}
	}

	return map[string]any{
		"co2_kg":    total,
		"breakdown": breakdown,
	}, nil
}
