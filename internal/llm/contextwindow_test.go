package llm

import (
	"strings"
	"testing"
)

// charManager builds a manager with the chars/4 fallback counter so token
// math in tests is exact and independent of the tiktoken vocabularies.
func charManager(maxTokens int) *ContextManager {
	return &ContextManager{maxTokens: maxTokens, enc: nil}
}

func TestBuildContextAssemblesAllParts(t *testing.T) {
	m := charManager(1000)
	history := []HistoryEntry{
		{Timestamp: "2026-08-01T00:00:00Z", Summary: "3 recommendations, 120.0 kg CO2 savings estimated"},
		{Timestamp: "2026-08-02T00:00:00Z", Summary: "4 recommendations, 95.5 kg CO2 savings estimated"},
	}

	out, err := m.BuildContext("system prompt", "current data block", history, 5)
	if err != nil {
		t.Fatalf("BuildContext returned error: %v", err)
	}
	if !strings.HasPrefix(out, "system prompt") {
		t.Fatalf("output does not start with system prompt: %q", out)
	}
	if !strings.Contains(out, "current data block") {
		t.Fatal("output missing current data")
	}
	if !strings.Contains(out, "## Historical Context") {
		t.Fatal("output missing history block")
	}
	if !strings.Contains(out, "### Entry 2") {
		t.Fatal("output missing second history entry")
	}
}

func TestBuildContextRejectsOversizedSystemPrompt(t *testing.T) {
	m := charManager(100)
	// 31 tokens in a 100-token budget crosses the 30% line.
	prompt := strings.Repeat("a", 31*4)
	if _, err := m.BuildContext(prompt, "data", nil, 5); err == nil {
		t.Fatal("expected oversized system prompt error, got nil")
	}

	// Exactly 30% is allowed.
	prompt = strings.Repeat("a", 30*4)
	if _, err := m.BuildContext(prompt, "data", nil, 5); err != nil {
		t.Fatalf("30%% prompt rejected: %v", err)
	}
}

func TestBuildContextTruncatesOversizedData(t *testing.T) {
	m := charManager(200)
	system := strings.Repeat("s", 40) // 10 tokens, leaves 190
	data := strings.Repeat("d", 2000) // 500 tokens, far over 50% of 190

	out, err := m.BuildContext(system, data, nil, 5)
	if err != nil {
		t.Fatalf("BuildContext returned error: %v", err)
	}
	if !strings.Contains(out, truncationMarker) {
		t.Fatal("truncated data missing marker")
	}
	dataPart := strings.SplitN(out, "\n\n", 2)[1]
	if got, limit := m.CountTokens(dataPart), 95; got > limit {
		t.Fatalf("data block %d tokens, allotment %d", got, limit)
	}
}

func TestBuildContextSerializesStructuredData(t *testing.T) {
	m := charManager(1000)
	out, err := m.BuildContext("system", map[string]any{"total_energy_kwh": 1600.5}, nil, 5)
	if err != nil {
		t.Fatalf("BuildContext returned error: %v", err)
	}
	if !strings.Contains(out, `"total_energy_kwh": 1600.5`) {
		t.Fatalf("structured data not serialized: %q", out)
	}
}

func TestBuildContextLimitsHistoryItems(t *testing.T) {
	m := charManager(10000)
	history := make([]HistoryEntry, 8)
	for i := range history {
		history[i] = HistoryEntry{Timestamp: "ts", Summary: "older plan"}
	}
	history[7].Summary = "newest plan"

	out, err := m.BuildContext("system", "data", history, 3)
	if err != nil {
		t.Fatalf("BuildContext returned error: %v", err)
	}
	if strings.Count(out, "### Entry") != 3 {
		t.Fatalf("history entries=%d want=3", strings.Count(out, "### Entry"))
	}
	if !strings.Contains(out, "newest plan") {
		t.Fatal("newest entry dropped from limited history")
	}
}

func TestBuildContextWalksHistoryNewestFirstUnderPressure(t *testing.T) {
	m := charManager(160)
	system := strings.Repeat("s", 40) // 10 tokens
	data := strings.Repeat("d", 40)   // 10 tokens
	history := []HistoryEntry{
		{Timestamp: "t1", Summary: strings.Repeat("x", 800)}, // way over the remainder
		{Timestamp: "t2", Summary: "fits fine"},
	}

	out, err := m.BuildContext(system, data, history, 5)
	if err != nil {
		t.Fatalf("BuildContext returned error: %v", err)
	}
	if !strings.Contains(out, "## Recent History") {
		t.Fatal("expected walked history block")
	}
	if !strings.Contains(out, "fits fine") {
		t.Fatal("newest entry missing from walked history")
	}
	if strings.Contains(out, strings.Repeat("x", 800)) {
		t.Fatal("oversized old entry should have been dropped")
	}
}

func TestTruncateReservesMarkerTokens(t *testing.T) {
	m := charManager(1000)
	text := strings.Repeat("z", 400) // 100 tokens
	out := m.truncate(text, 20)
	if !strings.HasSuffix(out, truncationMarker) {
		t.Fatalf("missing marker: %q", out)
	}
	if got := m.CountTokens(out); got > 20 {
		t.Fatalf("truncated block %d tokens, allotment 20", got)
	}
}

func TestCountTokensFallback(t *testing.T) {
	m := charManager(100)
	if got := m.CountTokens(strings.Repeat("a", 40)); got != 10 {
		t.Fatalf("tokens=%d want=10", got)
	}
}
