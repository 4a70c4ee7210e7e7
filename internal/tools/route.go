package tools

import "context"

// Consolidating stops trims roughly 15% of fleet distance in the demo model.
const routeConsolidationRatio = 0.15

// RouteOptimizer estimates savings from consolidating delivery routes. It is
// a best-effort enrichment hook: planners tolerate its absence entirely.
type RouteOptimizer struct {
	dieselFactor   float64 // kg CO2/L
	litersPerKm    float64
	defaultFleetKm float64
}

func NewRouteOptimizer(dieselFactor float64) *RouteOptimizer {
	return &RouteOptimizer{
		dieselFactor:   dieselFactor,
		litersPerKm:    0.35,
		defaultFleetKm: 120,
	}
}

func (r *RouteOptimizer) Name() string { return "route_optimizer" }

func (r *RouteOptimizer) Description() string {
	return "Estimate distance, fuel and CO2 savings from consolidating delivery routes"
}

func (r *RouteOptimizer) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"distance_km": map[string]any{
				"type":        "number",
				"description": "Total fleet distance per day in km",
			},
			"stops": map[string]any{
				"type":        "number",
				"description": "Number of delivery stops",
			},
		},
	}
}

func (r *RouteOptimizer) Execute(_ context.Context, args map[string]any) (map[string]any, error) {
	distance := floatArg(args, "distance_km")
	if distance <= 0 {
		distance = r.defaultFleetKm
	}
	savedKm := distance * routeConsolidationRatio
	savedLiters := savedKm * r.litersPerKm
	return map[string]any{
		"optimized":          true,
		"distance_saved_km":  savedKm,
		"fuel_saved_liters":  savedLiters,
		"co2_saved_kg":       savedLiters * r.dieselFactor,
		"consolidation_rate": routeConsolidationRatio,
	}, nil
}
