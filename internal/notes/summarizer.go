// Package notes condenses meeting notes into summary bullets and action items.
package notes

import (
	"regexp"
	"sort"
	"strings"
)

const (
	// MaxBullets caps the summary length.
	MaxBullets = 6
	// MaxActions caps the action item list.
	MaxActions = 10

	keywordBonus = 5
)

// DefaultKeywords mark lines that carry decisions, deadlines or owners.
var DefaultKeywords = []string{
	"decid", "defin", "problema", "prazo", "respons", "entrega", "bloqueio", "próxim", "next",
	"decision", "deadline", "blocker", "owner",
}

var (
	defaultActionVerbs = regexp.MustCompile(`(?i)(fazer|entregar|revisar|implementar|corrigir|enviar|agendar|contatar|criar|finalizar|priorizar|testar|deliver|review|implement|fix|send|schedule|contact|create|finish|prioritize|test)`)
	bulletPrefix       = regexp.MustCompile(`^\s*[-*]\s+`)
	lineBreaks         = regexp.MustCompile(`\n+`)
)

// Summarizer scores lines of free text.
type Summarizer struct {
	keywords []string
	verbs    *regexp.Regexp
}

// NewSummarizer creates a Summarizer using the default keywords plus extra.
func NewSummarizer(extra ...string) *Summarizer {
	keywords := make([]string, 0, len(DefaultKeywords)+len(extra))
	keywords = append(keywords, DefaultKeywords...)
	for _, k := range extra {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &Summarizer{keywords: keywords, verbs: defaultActionVerbs}
}

type scoredLine struct {
	line  string
	score int
}

// Summarize returns up to MaxBullets lines, highest score first. A line
// scores its word count, plus a bonus when it mentions a keyword. Ties keep
// their original order.
func (s *Summarizer) Summarize(text string) []string {
	lines := splitLines(text)
	scored := make([]scoredLine, len(lines))
	for i, l := range lines {
		scored[i] = scoredLine{line: l, score: s.Score(l)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	n := min(MaxBullets, len(scored))
	out := make([]string, n)
	for i := range out {
		out[i] = scored[i].line
	}
	return out
}

// Score rates a single line.
func (s *Summarizer) Score(line string) int {
	score := len(strings.Fields(line))
	lower := strings.ToLower(line)
	for _, k := range s.keywords {
		if strings.Contains(lower, k) {
			score += keywordBonus
			break
		}
	}
	return score
}

// DetectActions returns up to MaxActions lines that start with a bullet or
// mention an action verb, with bullet markers removed.
func (s *Summarizer) DetectActions(text string) []string {
	var actions []string
	for _, l := range splitLines(text) {
		if len(actions) == MaxActions {
			break
		}
		if s.verbs.MatchString(l) || bulletPrefix.MatchString(l) {
			actions = append(actions, bulletPrefix.ReplaceAllString(l, ""))
		}
	}
	return actions
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range lineBreaks.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
