package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"greenwise/internal/agents"
	"greenwise/internal/config"
	"greenwise/internal/events"
	"greenwise/internal/llm"
	"greenwise/internal/logging"
	"greenwise/internal/memory"
	"greenwise/internal/telemetry"
	"greenwise/internal/tools"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}
	switch args[0] {
	case "help", "-h", "--help":
		printUsage()
		return nil
	case "run":
		return cmdRun(args[1:])
	case "plans":
		return cmdPlans(args[1:])
	case "feedback":
		return cmdFeedback(args[1:])
	case "readings":
		return cmdReadings(args[1:])
	case "baseline":
		return cmdBaseline(args[1:])
	case "events":
		return cmdEvents(args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Println("greenwise - sustainability recommendation agents")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  greenwise run [--config FILE] [--json]")
	fmt.Println("  greenwise plans [--config FILE] [--limit N]")
	fmt.Println("  greenwise feedback [--config FILE] --plan ID --rec ID --action accepted|rejected|deferred [--notes TEXT]")
	fmt.Println("  greenwise readings [--config FILE]")
	fmt.Println("  greenwise baseline [--config FILE]")
	fmt.Println("  greenwise events [--config FILE] [--limit N]")
}

// app bundles the wired components a command needs. Close releases the memory
// bank and, when configured, the event mirror.
type app struct {
	cfg          config.Config
	bank         *memory.Bank
	publisher    *events.Publisher
	orchestrator *agents.Orchestrator
}

func (a *app) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	a.bank.Close()
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel, os.Stderr)

	bank, err := memory.Open(cfg.MemoryPath, log)
	if err != nil {
		return nil, err
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.EventsTopic, log)

	var gen llm.Generator
	if cfg.GeminiAPIKey != "" {
		gen, err = llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.ModelName)
		if err != nil {
			bank.Close()
			return nil, fmt.Errorf("gemini client: %w", err)
		}
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, planner falls back to rule-based recommendations")
		gen = unconfiguredGenerator{}
	}
	client := llm.NewClient(gen, cfg.LLMMaxRetries, cfg.RateLimitDelay(), log)
	window := llm.NewContextManager(cfg.ModelName, cfg.ContextTokens)

	seed := cfg.SimulatorSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	source := telemetry.NewSimulator(seed)

	var weather telemetry.WeatherSource
	if cfg.EnableWeatherAPI && cfg.WeatherURL != "" {
		weather = telemetry.NewHTTPWeather(cfg.WeatherURL, cfg.WeatherAPIKey)
	}

	toolset := []tools.Tool{
		tools.NewEmissionsCalculator(cfg.EmissionFactorElectricity, cfg.EmissionFactorDiesel, cfg.EmissionFactorGasoline),
		tools.NewIoTReadings(source),
	}
	if cfg.EnableRouteOptimization {
		toolset = append(toolset, tools.NewRouteOptimizer(cfg.EmissionFactorDiesel))
	}
	registry, err := tools.NewRegistry(toolset...)
	if err != nil {
		bank.Close()
		return nil, err
	}

	var sink agents.EventSink
	if publisher != nil {
		sink = publisher
	}
	scout := agents.NewDataScout(source, weather, bank, sink, cfg.EmissionFactorElectricity, log)
	planner := agents.NewEcoPlanner(client, registry, window, bank, sink, cfg.EmissionFactorElectricity, cfg.Temperature, cfg.MaxRecommendations, log)
	orchestrator := agents.NewOrchestrator(scout, planner, bank, memory.NewSessionManager(), log)

	return &app{cfg: cfg, bank: bank, publisher: publisher, orchestrator: orchestrator}, nil
}

// unconfiguredGenerator stands in when no API key is present. Its error is
// not a rate-limit signature, so the client fails fast instead of retrying.
type unconfiguredGenerator struct{}

func (unconfiguredGenerator) Generate(context.Context, llm.Request) (llm.Result, error) {
	return llm.Result{}, errors.New("gemini api key not configured")
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration file path")
	jsonOut := fs.Bool("json", false, "print the full cycle result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.orchestrator.RunCycle(ctx, nil)
	if *jsonOut {
		return printJSON(result)
	}
	if result.Status != "completed" {
		return fmt.Errorf("cycle failed: %s", result.Error)
	}
	plan := result.Plan
	fmt.Printf("Plan %d (%s priority): %d recommendations, %.1f kg CO2 / %.1f kWh estimated savings\n",
		plan.PlanID, plan.ImplementationPriority, len(plan.Recommendations), plan.TotalCO2SavingsKg, plan.TotalEnergySavingsKWh)
	for i, rec := range plan.Recommendations {
		fmt.Printf("\n%d. [%s] %s\n", i+1, rec.ID, rec.Description)
		fmt.Printf("   savings: %.1f kWh, %.1f kg CO2 | complexity: %s | timeline: %s\n",
			rec.EnergySavingsKWh, rec.CO2SavingsKg, rec.Complexity, rec.Timeline)
	}
	return nil
}

func cmdPlans(args []string) error {
	fs := flag.NewFlagSet("plans", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration file path")
	limit := fs.Int("limit", 10, "maximum number of plans to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	plans, err := a.bank.GetRecentPlans(ctx, *limit)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Println("No plans stored yet. Run `greenwise run` first.")
		return nil
	}
	for _, p := range plans {
		fmt.Printf("plan %d  %s  %.1f kg CO2  status=%s\n", p.ID, p.Timestamp, p.TotalCO2Savings, p.Status)
	}
	return nil
}

func cmdFeedback(args []string) error {
	fs := flag.NewFlagSet("feedback", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration file path")
	planID := fs.Int64("plan", 0, "plan id")
	recID := fs.String("rec", "", "recommendation id")
	action := fs.String("action", "", "accepted, rejected or deferred")
	notes := fs.String("notes", "", "free-form notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *planID == 0 || *recID == "" {
		return errors.New("feedback requires --plan and --rec")
	}
	switch *action {
	case "accepted", "rejected", "deferred":
	default:
		return fmt.Errorf("invalid --action %q", *action)
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.bank.StoreFeedback(ctx, *planID, *recID, *action, *notes); err != nil {
		return err
	}
	fmt.Printf("Recorded %s feedback for recommendation %s on plan %d\n", *action, *recID, *planID)
	return nil
}

func cmdReadings(args []string) error {
	fs := flag.NewFlagSet("readings", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	seed := cfg.SimulatorSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	data, err := telemetry.NewSimulator(seed).LatestReadings(context.Background())
	if err != nil {
		return err
	}
	return printJSON(data)
}

func cmdBaseline(args []string) error {
	fs := flag.NewFlagSet("baseline", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	baseline, err := a.bank.GetBaselineMetrics(ctx)
	if err != nil {
		return err
	}
	return printJSON(baseline)
}

func cmdEvents(args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration file path")
	limit := fs.Int("limit", 20, "maximum number of events to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	evs, err := a.bank.RecentEvents(ctx, *limit)
	if err != nil {
		return err
	}
	for _, e := range evs {
		fmt.Printf("%s  %-10s %-18s %s\n", e.Timestamp, e.AgentName, e.Action, e.Details)
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
