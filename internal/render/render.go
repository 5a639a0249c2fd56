// Package render formats conversation output for the terminal.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spigell/scheme-assistant/internal/conversation"
	"github.com/spigell/scheme-assistant/internal/eligibility"
	"github.com/spigell/scheme-assistant/internal/scheme"
)

const defaultWidth = 72

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#AAAAAA"))
	linkStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#4EC9B0"))
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD166"))
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06D6A0"))
)

// SchemeCard renders one scheme as a bordered card.
func SchemeCard(s *scheme.Scheme, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	lines := []string{titleStyle.Render(s.Name)}
	if s.Description != "" {
		lines = append(lines, s.Description)
	}
	for _, field := range []struct{ label, value string }{
		{"Benefit", s.Benefit},
		{"How to apply", s.ApplicationProcess},
		{"Department", s.Department},
	} {
		if field.value == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render(field.label+":"), field.value))
	}
	if s.ApplyLink != "" {
		lines = append(lines, linkStyle.Render(s.ApplyLink))
	}

	return cardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Results renders every scheme card in order.
func Results(s *scheme.Schemes, width int) string {
	if s.Len() == 0 {
		return ""
	}

	cards := make([]string, 0, s.Len())
	for _, item := range s.Items {
		cards = append(cards, SchemeCard(item, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// Utterance renders a transcript line.
func Utterance(u conversation.Utterance) string {
	if u.Speaker == conversation.SpeakerUser {
		return userStyle.Render("you: " + u.Text)
	}
	return systemStyle.Render(u.Text)
}

// Verdict renders the per-field result of matching one scheme.
func Verdict(v eligibility.Verdict) string {
	var b strings.Builder
	if v.Eligible {
		b.WriteString(passStyle.Render("✔ " + v.Scheme.Name))
	} else {
		b.WriteString(failStyle.Render("✘ " + v.Scheme.Name))
	}

	if len(v.Failed) > 0 {
		fmt.Fprintf(&b, "\n  failed: %s", strings.Join(v.Failed, ", "))
	}
	for _, skipped := range v.Skipped {
		fmt.Fprintf(&b, "\n  skipped %s: %s", skipped.Field, skipped.Reason)
	}
	if len(v.Unknown) > 0 {
		fmt.Fprintf(&b, "\n  ignored: %s", strings.Join(v.Unknown, ", "))
	}
	return b.String()
}

// Criteria renders criteria as sorted key=value pairs.
func Criteria(c scheme.Criteria) string {
	if len(c) == 0 {
		return "no restrictions"
	}

	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, c[k]))
	}
	return strings.Join(parts, " ")
}

// Report renders schemes grouped by department, departments sorted.
func Report(report map[string][]map[string]string) string {
	departments := make([]string, 0, len(report))
	for d := range report {
		departments = append(departments, d)
	}
	sort.Strings(departments)

	var b strings.Builder
	for i, d := range departments {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render(d))
		for _, entry := range report[d] {
			fmt.Fprintf(&b, "\n  • %s", entry["name"])
			if benefit := entry["benefit"]; benefit != "" {
				fmt.Fprintf(&b, " (%s)", benefit)
			}
		}
	}
	return b.String()
}
