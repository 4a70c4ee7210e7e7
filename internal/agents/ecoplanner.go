package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"greenwise/internal/llm"
	"greenwise/internal/tools"
)

const (
	fallbackTotalEnergyKWh = 950 // assumed load when neither summary nor baseline has one

	highPriorityCO2Kg = 100 // total savings above this mark the plan high priority
	promptAnomalyCap  = 5
	historyPlanLimit  = 5
)

// EcoPlanner turns a context package into a ranked plan. The LLM path is
// best-effort; the deterministic rule-based generator guarantees the plan is
// never empty.
type EcoPlanner struct {
	name               string
	llm                PlannerLLM
	registry           *tools.Registry
	window             *llm.ContextManager
	store              Store
	sink               EventSink // optional
	emissionFactor     float64
	temperature        float64
	maxRecommendations int
	log                zerolog.Logger
	now                func() time.Time
}

func NewEcoPlanner(client PlannerLLM, registry *tools.Registry, window *llm.ContextManager, store Store, sink EventSink, emissionFactor, temperature float64, maxRecommendations int, log zerolog.Logger) *EcoPlanner {
	return &EcoPlanner{
		name:               "EcoPlanner",
		llm:                client,
		registry:           registry,
		window:             window,
		store:              store,
		sink:               sink,
		emissionFactor:     emissionFactor,
		temperature:        temperature,
		maxRecommendations: maxRecommendations,
		log:                log.With().Str("agent", "EcoPlanner").Logger(),
		now:                time.Now,
	}
}

func (p *EcoPlanner) Name() string { return p.name }

// Execute runs one planning cycle: prompt, generate, parse, enrich, rank,
// persist.
func (p *EcoPlanner) Execute(ctx context.Context, pkg ContextPackage) (Plan, error) {
	p.log.Info().Msg("starting planning cycle")

	prompt, err := p.buildPlanningPrompt(ctx, pkg)
	if err != nil {
		return Plan{}, fmt.Errorf("build planning prompt: %w", err)
	}

	res := p.llm.GenerateWithTools(ctx, prompt, p.toolDecls(), p.temperature)
	if res.Err != "" {
		p.log.Warn().Str("error", res.Err).Msg("llm returned soft error, using rule-based recommendations")
	}

	recommendations := parseRecommendations(res)
	if len(recommendations) == 0 {
		recommendations = p.ruleBasedRecommendations(pkg)
	}

	enriched, err := p.enrich(ctx, recommendations)
	if err != nil {
		return Plan{}, fmt.Errorf("enrich recommendations: %w", err)
	}
	// A plan must never ship empty, even if an enrichment step someday
	// starts filtering records out.
	if len(enriched) == 0 {
		enriched, err = p.enrich(ctx, p.ruleBasedRecommendations(pkg))
		if err != nil {
			return Plan{}, fmt.Errorf("enrich fallback recommendations: %w", err)
		}
	}

	plan := p.prioritizeAndFormat(enriched)

	planID, err := p.store.StorePlan(ctx, plan.Timestamp, plan.Recommendations, plan.TotalCO2SavingsKg)
	if err != nil {
		return Plan{}, fmt.Errorf("store plan: %w", err)
	}
	plan.PlanID = planID

	p.logAction(ctx, "plan_generated", map[string]any{
		"recommendation_count":  len(plan.Recommendations),
		"estimated_co2_savings": plan.TotalCO2SavingsKg,
	})
	return plan, nil
}

// RunTask adapts Execute to the orchestrator's generic task surface. The
// input must carry a "context_package" produced by Data Scout.
func (p *EcoPlanner) RunTask(ctx context.Context, input map[string]any) (map[string]any, error) {
	pkg, ok := input["context_package"].(ContextPackage)
	if !ok {
		return nil, fmt.Errorf("ecoplanner task input missing context_package")
	}
	plan, err := p.Execute(ctx, pkg)
	if err != nil {
		return nil, err
	}
	return map[string]any{"plan": plan}, nil
}

func (p *EcoPlanner) toolDecls() []llm.ToolDecl {
	if p.registry == nil {
		return nil
	}
	regDecls := p.registry.Declarations()
	decls := make([]llm.ToolDecl, 0, len(regDecls))
	for _, d := range regDecls {
		decls = append(decls, llm.ToolDecl{Name: d.Name, Description: d.Description, Parameters: d.Parameters})
	}
	return decls
}

// buildPlanningPrompt embeds the operational state, up to five anomalies,
// external signals and the fixed task description, then passes the whole
// thing through the context window budgeter together with recent plan
// history.
func (p *EcoPlanner) buildPlanningPrompt(ctx context.Context, pkg ContextPackage) (string, error) {
	var b strings.Builder

	b.WriteString("## Current Operational State\n\n")
	fmt.Fprintf(&b, "**Total Energy Consumption:** %.1f kWh\n", pkg.OperationalSummary.TotalEnergyKWh)
	fmt.Fprintf(&b, "**Total CO2 Emissions:** %.1f kg CO2\n", pkg.OperationalSummary.TotalEmissionsKgCO2)
	fmt.Fprintf(&b, "**Detected Anomalies:** %d\n", len(pkg.Anomalies))

	b.WriteString("\n### Anomalies Requiring Attention:\n")
	anomalies := pkg.Anomalies
	if len(anomalies) > promptAnomalyCap {
		anomalies = anomalies[:promptAnomalyCap]
	}
	for _, a := range anomalies {
		fmt.Fprintf(&b, "\n- %s at %s: %.1f%% above baseline (severity: %s)", a.Type, a.Facility, a.DeviationPct, a.Severity)
	}

	b.WriteString("\n\n### External Context:\n")
	fmt.Fprintf(&b, "- Grid Carbon Intensity: %.2f kg CO2/kWh\n", pkg.ExternalContext.GridCarbonIntensity)
	if w := pkg.ExternalContext.Weather; w != nil {
		fmt.Fprintf(&b, "- Weather Forecast: %s, Temp: %.1f°C\n", w.Condition, w.TemperatureC)
	}

	b.WriteString(`
## Task:
Generate 3-5 specific, actionable recommendations to:
1. Reduce energy consumption
2. Lower carbon emissions
3. Improve operational efficiency
4. Address detected anomalies

For each recommendation, provide:
- Clear action description
- Estimated impact (kWh saved, CO2 reduced)
- Implementation complexity (low/medium/high)
- Time horizon (immediate/short-term/long-term)

Use available tools to calculate precise impacts when needed.
`)

	history := p.planHistory(ctx)
	return p.window.BuildContext(llm.EcoPlannerSystemPrompt, b.String(), history, historyPlanLimit)
}

// planHistory is best effort: an unreadable history never blocks planning.
func (p *EcoPlanner) planHistory(ctx context.Context) []llm.HistoryEntry {
	summaries, err := p.store.PlanHistory(ctx, historyPlanLimit)
	if err != nil {
		p.log.Warn().Err(err).Msg("plan history unavailable")
		return nil
	}
	entries := make([]llm.HistoryEntry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, llm.HistoryEntry{Timestamp: s.Timestamp, Summary: s.Summary})
	}
	return entries
}

// parseRecommendations extracts recommendation records from an LLM result.
// It prefers a structured "recommendations" JSON array (raw or fenced);
// otherwise it splits the text into markdown blocks. Both paths are lossy;
// the rule-based generator backs them up.
func parseRecommendations(res llm.Result) []Recommendation {
	if res.Err != "" {
		return nil
	}
	if recs, ok := structuredRecommendations(res.Text); ok {
		return recs
	}
	return blockRecommendations(res.Text)
}

func structuredRecommendations(text string) ([]Recommendation, bool) {
	candidate := strings.TrimSpace(text)
	if start := strings.Index(candidate, "```json"); start >= 0 {
		rest := candidate[start+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate = strings.TrimSpace(rest[:end])
		}
	}
	arr := gjson.Get(candidate, "recommendations")
	if !arr.IsArray() {
		return nil, false
	}
	var recs []Recommendation
	arr.ForEach(func(_, item gjson.Result) bool {
		recs = append(recs, Recommendation{
			ID:               item.Get("id").String(),
			Description:      item.Get("description").String(),
			EnergySavingsKWh: item.Get("energy_savings_kwh").Float(),
			CO2SavingsKg:     item.Get("co2_savings_kg").Float(),
			Complexity:       item.Get("complexity").String(),
			Timeline:         item.Get("timeline").String(),
			Category:         item.Get("category").String(),
			Rationale:        item.Get("rationale").String(),
		})
		return true
	})
	return recs, len(recs) > 0
}

func blockRecommendations(text string) []Recommendation {
	var (
		recs    []Recommendation
		current *Recommendation
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "##") || strings.HasPrefix(line, "**Recommendation") {
			if current != nil {
				recs = append(recs, *current)
			}
			current = &Recommendation{}
			continue
		}
		if current != nil {
			current.Description += line + " "
		}
	}
	if current != nil {
		recs = append(recs, *current)
	}
	for i := range recs {
		recs[i].Description = strings.TrimSpace(recs[i].Description)
	}
	return recs
}

// ruleBasedRecommendations is the deterministic fallback generator. It always
// returns at least three fully populated recommendations, regardless of how
// empty the context is.
func (p *EcoPlanner) ruleBasedRecommendations(pkg ContextPackage) []Recommendation {
	totalEnergy := pkg.OperationalSummary.TotalEnergyKWh
	if totalEnergy == 0 {
		totalEnergy = pkg.HistoricalBaseline["energy_kwh"]
	}
	if totalEnergy == 0 {
		totalEnergy = fallbackTotalEnergyKWh
	}
	totalEmissions := pkg.OperationalSummary.TotalEmissionsKgCO2
	if totalEmissions == 0 {
		totalEmissions = pkg.HistoricalBaseline["emissions_kg"]
	}
	gridIntensity := pkg.ExternalContext.GridCarbonIntensity
	if gridIntensity == 0 {
		gridIntensity = p.emissionFactor
	}

	recs := []Recommendation{
		{
			ID:               "hvac_scheduling",
			Category:         "hvac",
			Description:      "Tighten HVAC schedules to occupancy: raise cooling setpoints by 1-2°C outside business hours and pre-condition before arrival.",
			EnergySavingsKWh: max(totalEnergy*0.08, 35),
			Complexity:       "medium",
			Timeline:         "immediate",
			Rationale:        "HVAC is typically the largest controllable load; schedule alignment captures savings without capital spend.",
		},
		{
			ID:               "load_shifting",
			Category:         "scheduling",
			Description:      fmt.Sprintf("Shift flexible equipment runs into low-carbon windows; current grid intensity is %.2f kg CO2/kWh.", gridIntensity),
			EnergySavingsKWh: max(totalEnergy*0.05, 25),
			Complexity:       "low",
			Timeline:         "short-term",
			Rationale:        "Deferring non-critical loads to cleaner grid hours cuts emissions even when consumption stays flat.",
		},
	}

	added := 0
	for _, a := range pkg.Anomalies {
		if added >= 3 {
			break
		}
		excess := a.Current - a.Baseline
		if excess <= 0 {
			continue
		}
		complexity := "low"
		if a.Severity == SeverityHigh {
			complexity = "medium"
		}
		recs = append(recs, Recommendation{
			ID:               "anomaly_" + a.Facility,
			Category:         "anomaly_response",
			Description:      fmt.Sprintf("Investigate the %s at %s: consumption is %.1f%% above baseline. Inspect equipment schedules and setpoints.", a.Type, a.Facility, a.DeviationPct),
			EnergySavingsKWh: max(excess*0.9, 20),
			Complexity:       complexity,
			Timeline:         "immediate",
			Rationale:        fmt.Sprintf("Eliminating the excess draw returns %s to its %.0f kWh baseline.", a.Facility, a.Baseline),
		})
		added++
	}

	recs = append(recs, Recommendation{
		ID:               "lighting_tuneup",
		Category:         "lighting",
		Description:      "Tune lighting controls: recommission occupancy sensors, trim daylight-hour output, and retire always-on circuits.",
		EnergySavingsKWh: max(totalEmissions*0.04/p.emissionFactor, 18),
		Complexity:       "low",
		Timeline:         "short-term",
		Rationale:        "Lighting controls drift; periodic tune-ups recover a steady few percent of load.",
	})
	return recs
}

// enrich computes precise CO2 impacts through the emissions tool and attaches
// route optimizations where the description calls for them. Tool absence is
// tolerated; tool failure is not.
func (p *EcoPlanner) enrich(ctx context.Context, recs []Recommendation) ([]Recommendation, error) {
	enriched := make([]Recommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.EnergySavingsKWh > 0 {
			if tool, ok := p.lookupTool("emissions_calculator"); ok {
				result, err := tool.Execute(ctx, map[string]any{"energy_kwh": rec.EnergySavingsKWh})
				if err != nil {
					return nil, fmt.Errorf("emissions calculator: %w", err)
				}
				if co2, ok := result["co2_kg"].(float64); ok {
					rec.CO2SavingsKg = co2
				}
			}
		}
		if strings.Contains(strings.ToLower(rec.Description), "route") {
			if tool, ok := p.lookupTool("route_optimizer"); ok {
				if result, err := tool.Execute(ctx, map[string]any{}); err == nil {
					rec.RouteOptimization = result
				} else {
					p.log.Warn().Err(err).Msg("route optimizer failed, keeping recommendation unenriched")
				}
			}
		}
		enriched = append(enriched, rec)
	}
	return enriched, nil
}

func (p *EcoPlanner) lookupTool(name string) (tools.Tool, bool) {
	if p.registry == nil {
		return nil, false
	}
	return p.registry.Get(name)
}

// prioritizeAndFormat ranks by CO2 savings (stable, descending), truncates to
// the configured maximum, and computes plan totals over what remains.
func (p *EcoPlanner) prioritizeAndFormat(recs []Recommendation) Plan {
	sorted := append([]Recommendation(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CO2SavingsKg > sorted[j].CO2SavingsKg
	})
	if p.maxRecommendations > 0 && len(sorted) > p.maxRecommendations {
		sorted = sorted[:p.maxRecommendations]
	}

	var totalCO2, totalEnergy float64
	for _, r := range sorted {
		totalCO2 += r.CO2SavingsKg
		totalEnergy += r.EnergySavingsKWh
	}
	priority := "medium"
	if totalCO2 > highPriorityCO2Kg {
		priority = "high"
	}
	return Plan{
		Timestamp:              p.now(),
		Recommendations:        sorted,
		TotalCO2SavingsKg:      totalCO2,
		TotalEnergySavingsKWh:  totalEnergy,
		ImplementationPriority: priority,
	}
}

func (p *EcoPlanner) logAction(ctx context.Context, action string, details map[string]any) {
	p.log.Info().Str("action", action).Fields(details).Msg("agent action")
	if err := p.store.LogEvent(ctx, p.name, action, details); err != nil {
		p.log.Warn().Err(err).Msg("failed to log event")
	}
	if p.sink != nil {
		if err := p.sink.Publish(ctx, p.name, action, details); err != nil {
			p.log.Warn().Err(err).Msg("failed to mirror event")
		}
	}
}
