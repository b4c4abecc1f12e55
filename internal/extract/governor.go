package extract

import (
	"sort"
	"strings"

	"github.com/hearthside/eventsift/internal/model"
)

// GovernorConfig controls event quality filtering and caps.
type GovernorConfig struct {
	// MaxEvents caps the number of events kept per response. Events are
	// ranked by quality score; lowest-quality events are dropped.
	// 0 means unlimited.
	MaxEvents int

	// MinTitleLength is the minimum title length in runes. Default: 1.
	MinTitleLength int

	// DropMarkdownJunk removes events whose titles are pure markdown
	// formatting artifacts (e.g., "**", "---", "```"). Default: true.
	DropMarkdownJunk bool

	// DropGenericTitles removes events whose titles carry no signal
	// (e.g., "untitled", "event", "n/a"). Default: true.
	DropGenericTitles bool
}

// DefaultGovernorConfig returns the recommended default governor settings.
func DefaultGovernorConfig() GovernorConfig {
	return GovernorConfig{
		MaxEvents:         50,
		MinTitleLength:    1,
		DropMarkdownJunk:  true,
		DropGenericTitles: true,
	}
}

// Governor filters, deduplicates and caps extracted events.
type Governor struct {
	config GovernorConfig
}

// NewGovernor creates a Governor with the given config.
func NewGovernor(cfg GovernorConfig) *Governor {
	return &Governor{config: cfg}
}

// Apply runs all quality filters and caps on a batch of events. Surviving
// events keep their input order.
func (g *Governor) Apply(events []model.NormalizedEvent) []model.NormalizedEvent {
	if len(events) == 0 {
		return events
	}

	// Phase 1: Drop garbage events
	filtered := make([]model.NormalizedEvent, 0, len(events))
	for _, e := range events {
		if g.isNoise(e) {
			continue
		}
		filtered = append(filtered, e)
	}

	// Phase 2: Deduplicate
	filtered = deduplicateByTitleStart(filtered)

	// Phase 3: Cap, keeping the best-scoring events
	limit := g.config.MaxEvents
	if limit <= 0 || len(filtered) <= limit {
		return filtered
	}
	idx := make([]int, len(filtered))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return qualityScore(filtered[idx[a]]) > qualityScore(filtered[idx[b]])
	})
	keep := idx[:limit]
	sort.Ints(keep)

	result := make([]model.NormalizedEvent, 0, limit)
	for _, i := range keep {
		result = append(result, filtered[i])
	}
	return result
}

// isNoise returns true if the event should be dropped as garbage.
func (g *Governor) isNoise(e model.NormalizedEvent) bool {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return true
	}
	if g.config.MinTitleLength > 0 && len([]rune(title)) < g.config.MinTitleLength {
		return true
	}
	if g.config.DropMarkdownJunk && (isMarkdownJunk(title) || isOnlyFormatting(title)) {
		return true
	}
	if g.config.DropGenericTitles && isGenericTitle(title) {
		return true
	}
	return false
}

// isMarkdownJunk detects titles that are pure markdown artifacts.
func isMarkdownJunk(s string) bool {
	stripped := strings.TrimSpace(s)
	if stripped == "" {
		return true
	}

	// All stars/dashes/pipes (table separators, horizontal rules)
	for _, r := range stripped {
		if r != '*' && r != '-' && r != '_' && r != '|' && r != ' ' && r != ':' && r != '#' {
			return false
		}
	}
	return true
}

// isOnlyFormatting returns true if the string is only markdown formatting characters.
func isOnlyFormatting(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		if r != '*' && r != '_' && r != '`' && r != '#' && r != '~' && r != ' ' {
			return false
		}
	}
	return true
}

var genericTitles = map[string]bool{
	"untitled":  true,
	"event":     true,
	"new event": true,
	"unknown":   true,
	"(unknown)": true,
	"none":      true,
	"n/a":       true,
	"null":      true,
	"tbd":       true,
	"無":         true,
	"无":         true,
	"未命名":       true,
}

// isGenericTitle detects titles that carry no useful signal.
func isGenericTitle(title string) bool {
	return genericTitles[strings.ToLower(strings.TrimSpace(title))]
}

// deduplicateByTitleStart removes events with the same title and start,
// keeping the one with highest confidence in the position of the first.
func deduplicateByTitleStart(events []model.NormalizedEvent) []model.NormalizedEvent {
	type eventKey struct {
		title string
		start int64
	}

	pos := make(map[eventKey]int, len(events))
	result := make([]model.NormalizedEvent, 0, len(events))
	for _, e := range events {
		key := eventKey{
			title: strings.ToLower(strings.Join(strings.Fields(e.Title), " ")),
			start: e.StartTime.Unix(),
		}
		if i, ok := pos[key]; ok {
			if e.Confidence > result[i].Confidence {
				result[i] = e
			}
			continue
		}
		pos[key] = len(result)
		result = append(result, e)
	}
	return result
}

// qualityScore assigns a 0-1 quality score to an event for ranking.
// Higher = better quality, more likely to be kept when capping.
func qualityScore(e model.NormalizedEvent) float64 {
	score := e.Confidence

	if strings.TrimSpace(e.Location) != "" {
		score += 0.05
	}
	if strings.TrimSpace(e.Description) != "" {
		score += 0.03
	}
	if e.RecurrenceRule != nil {
		score += 0.02
	}

	// Penalize very short titles
	if len([]rune(strings.TrimSpace(e.Title))) < 3 {
		score -= 0.10
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}
