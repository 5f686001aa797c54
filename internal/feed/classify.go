package feed

import (
	"regexp"
	"strings"

	xstrings "github.com/joss/ddx/internal/strings"
)

// Kind identifies what a feed line means.
type Kind int

const (
	// KindIgnored is a frame that is not a data event, or is blank once decoded.
	KindIgnored Kind = iota
	// KindDifferential carries a ranked differential diagnosis snapshot.
	KindDifferential
	// KindAgentBoundary marks the start of an agent's turn.
	KindAgentBoundary
	// KindStatus is a short single-line status notice.
	KindStatus
	// KindContent is free text belonging to the current agent turn.
	KindContent
	// KindEmpty is pure border decoration.
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindIgnored:
		return "ignored"
	case KindDifferential:
		return "differential"
	case KindAgentBoundary:
		return "agent"
	case KindStatus:
		return "status"
	case KindContent:
		return "content"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Pair is one ranked entry of a differential line.
type Pair struct {
	Label       string `json:"diagnosis"`
	Probability string `json:"probability"`
}

// Classification is the result of classifying one line.
//
// Text holds the agent name for KindAgentBoundary, the full line for
// KindStatus and KindDifferential, and the cleaned text for KindContent.
type Classification struct {
	Kind  Kind
	Text  string
	Pairs []Pair
}

const (
	// EventPrefix starts every meaningful frame.
	EventPrefix = "data: "

	// AgentMarker introduces the agent name in a turn header.
	AgentMarker = "Agent Name:"

	maxPairs        = 3
	statusWindow    = 5
	statusMaxLength = 150
)

var (
	ansiSGR = regexp.MustCompile(`\x1b\[[0-9;]*m`)

	differentialMarker = regexp.MustCompile(`(?i)top differential diagnoses|differential diagnosis updated`)

	// Either "1. Label ... 42%" or "- Label: 42%".
	differentialPair = regexp.MustCompile(
		`(?:\d+\.\s+([^%\n]+?)[\s:.\-–—(]*(\d{1,3}(?:\.\d+)?)\s*%)|(?:-\s+([^:%\n]+?):\s*(\d{1,3}(?:\.\d+)?)\s*%)`)

	agentHeader = regexp.MustCompile(regexp.QuoteMeta(AgentMarker) + `\s*([\p{L}.\- ]+)`)

	boxDrawing = regexp.MustCompile(`[\x{2500}-\x{257F}]`)
	filler     = regexp.MustCompile(`[\s\-_]`)
)

// StatusGlyphs are the icons that open a status line.
var StatusGlyphs = []string{
	"🤔", "💭", "🔍", "🔎", "📋", "📝", "✅", "❌", "⚠", "⏳", "⌛", "🚀",
	"🏁", "💡", "🩺", "🧠", "🔄", "⚡", "🎯", "📊", "⏹", "🛑", "ℹ",
}

// Classify maps a raw feed line to exactly one classification. Checks run in
// a fixed order and the first match wins.
func Classify(line string) Classification {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, EventPrefix) {
		return Classification{Kind: KindIgnored}
	}
	line = strings.TrimSpace(StripANSI(line[len(EventPrefix):]))
	if line == "" {
		return Classification{Kind: KindIgnored}
	}

	if differentialMarker.MatchString(line) {
		if pairs := ParsePairs(line); len(pairs) > 0 {
			return Classification{Kind: KindDifferential, Text: line, Pairs: pairs}
		}
	}

	if m := agentHeader.FindStringSubmatch(line); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return Classification{Kind: KindAgentBoundary, Text: name}
		}
	}

	if isStatus(line) {
		return Classification{Kind: KindStatus, Text: line}
	}

	cleaned := boxDrawing.ReplaceAllString(line, "")
	if filler.ReplaceAllString(cleaned, "") == "" {
		return Classification{Kind: KindEmpty}
	}
	return Classification{Kind: KindContent, Text: strings.TrimSpace(cleaned)}
}

// StripANSI removes SGR color sequences. Other control sequences are kept.
func StripANSI(s string) string {
	return ansiSGR.ReplaceAllString(s, "")
}

// ParsePairs extracts up to three (label, percentage) pairs in line order.
func ParsePairs(line string) []Pair {
	var pairs []Pair
	for _, m := range differentialPair.FindAllStringSubmatch(line, maxPairs) {
		label, pct := m[1], m[2]
		if label == "" {
			label, pct = m[3], m[4]
		}
		label = strings.Trim(label, " \t:.-–—(")
		if label == "" {
			continue
		}
		pairs = append(pairs, Pair{Label: label, Probability: pct + "%"})
	}
	return pairs
}

func isStatus(line string) bool {
	if xstrings.RuneLen(line) >= statusMaxLength || strings.Contains(line, AgentMarker) {
		return false
	}
	head := xstrings.FirstRunes(line, statusWindow)
	for _, g := range StatusGlyphs {
		if strings.Contains(head, g) {
			return true
		}
	}
	return false
}
