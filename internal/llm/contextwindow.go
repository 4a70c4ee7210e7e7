package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const truncationMarker = "\n... (truncated)"

// HistoryEntry is one prior-cycle line eligible for the history block.
type HistoryEntry struct {
	Timestamp string
	Summary   string
}

// ContextManager assembles prompts under a fixed token ceiling. Inclusion
// order deducts from the remaining budget: system prompt (hard cap at 30% of
// the ceiling), current data (token-truncated to 50% of what remains), then
// as much history as still fits.
type ContextManager struct {
	maxTokens int
	enc       *tiktoken.Tiktoken
}

func NewContextManager(model string, maxTokens int) *ContextManager {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Gemini and friends have no tiktoken mapping; cl100k_base is the
		// generic fallback, and a nil encoder falls through to chars/4.
		enc, _ = tiktoken.GetEncoding("cl100k_base")
	}
	return &ContextManager{maxTokens: maxTokens, enc: enc}
}

func (m *ContextManager) MaxTokens() int { return m.maxTokens }

func (m *ContextManager) CountTokens(text string) int {
	if m.enc == nil {
		return len(text) / 4
	}
	return len(m.enc.Encode(text, nil, nil))
}

// BuildContext assembles the final prompt text. currentData may be a string
// (used verbatim) or any JSON-serializable value.
func (m *ContextManager) BuildContext(systemPrompt string, currentData any, history []HistoryEntry, maxHistoryItems int) (string, error) {
	remaining := m.maxTokens

	systemTokens := m.CountTokens(systemPrompt)
	if float64(systemTokens) > float64(remaining)*0.3 {
		return "", fmt.Errorf("system prompt too long: %d tokens exceeds 30%% of %d token budget", systemTokens, m.maxTokens)
	}
	parts := []string{systemPrompt}
	remaining -= systemTokens

	dataStr := formatData(currentData)
	dataTokens := m.CountTokens(dataStr)
	if float64(dataTokens) > float64(remaining)*0.5 {
		dataStr = m.truncate(dataStr, int(float64(remaining)*0.5))
		dataTokens = m.CountTokens(dataStr)
	}
	parts = append(parts, dataStr)
	remaining -= dataTokens

	if len(history) > 0 {
		block := formatHistory(history, maxHistoryItems)
		if m.CountTokens(block) <= remaining {
			parts = append(parts, block)
		} else {
			parts = append(parts, m.truncateHistory(history, remaining))
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// truncate cuts text to maxTokens tokens, reserving room for the marker so
// the returned block stays within the allotment.
func (m *ContextManager) truncate(text string, maxTokens int) string {
	keep := maxTokens - m.CountTokens(truncationMarker)
	if keep < 0 {
		keep = 0
	}
	if m.enc == nil {
		if len(text) <= keep*4 {
			return text
		}
		return text[:keep*4] + truncationMarker
	}
	tokens := m.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return m.enc.Decode(tokens[:keep]) + truncationMarker
}

// truncateHistory walks history newest-first, accumulating entries until the
// next one would overflow, then restores oldest-first order.
func (m *ContextManager) truncateHistory(history []HistoryEntry, maxTokens int) string {
	var (
		lines  []string
		tokens int
	)
	for i := len(history) - 1; i >= 0; i-- {
		line := fmt.Sprintf("- %s: %s", history[i].Timestamp, history[i].Summary)
		n := m.CountTokens(line)
		if tokens+n > maxTokens {
			break
		}
		lines = append([]string{line}, lines...)
		tokens += n
	}
	return "## Recent History\n" + strings.Join(lines, "\n")
}

func formatData(data any) string {
	if s, ok := data.(string); ok {
		return s
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}

func formatHistory(history []HistoryEntry, maxItems int) string {
	recent := history
	if maxItems > 0 && len(history) > maxItems {
		recent = history[len(history)-maxItems:]
	}
	var b strings.Builder
	b.WriteString("## Historical Context\n")
	for i, entry := range recent {
		fmt.Fprintf(&b, "\n### Entry %d\nTimestamp: %s\nSummary: %s\n", i+1, entry.Timestamp, entry.Summary)
	}
	return b.String()
}
