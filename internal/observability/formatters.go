package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/provider-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxCandidatesToShow bounds the candidate listing
	maxCandidatesToShow = 10
)

// Printer handles formatted terminal output for match results.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Long lines are
// wrapped on word boundaries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		for _, wrapped := range wrap(line, inner) {
			fmt.Fprintf(p.out, "│ %s │\n", pad(wrapped, inner))
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintStats outputs the loaded pool sizes and LLM status.
func (p *Printer) PrintStats(stats *types.Stats) {
	if stats == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Medical Directors:  %d\n", stats.Directors))
	sb.WriteString(fmt.Sprintf("Nurses:             %d\n", stats.Nurses))
	status := "not configured"
	if stats.APIKeyConfigured {
		status = "configured"
		if stats.Model != "" {
			status += " (" + stats.Model + ")"
		}
	}
	sb.WriteString(fmt.Sprintf("LLM API key:        %s\n", status))

	p.printBox("DATABASE STATS", sb.String())
}

// PrintDirector outputs the subject director.
func (p *Printer) PrintDirector(d *types.Director) {
	if d == nil {
		return
	}
	p.printBox("MEDICAL DIRECTOR", fmt.Sprintf(
		"Name:       %s\nEmail:      %s\nState:      %s\nOnboarded:  %s",
		orDash(d.FullName()), orDash(d.Email), orDash(d.Jurisdiction), orDash(d.OnboardedAt),
	))
}

// PrintNurse outputs the subject nurse.
func (p *Printer) PrintNurse(n *types.Nurse) {
	if n == nil {
		return
	}
	p.printBox("NURSE", fmt.Sprintf(
		"Ticket:     %s\nEmail:      %s\nLicense:    %s\nExperience: %s\nState:      %s\nServices:   %s\nNotes:      %s",
		orDash(n.Ticket), orDash(n.Email), orDash(n.LicenseType), orDash(n.ExperienceLevel),
		orDash(n.Jurisdiction), orDash(n.Services), orDash(n.Notes),
	))
}

// PrintCandidates outputs a compact listing of the candidates sent to the LLM.
func (p *Printer) PrintCandidates(set types.CandidateSet) {
	var lines []string
	for _, d := range set.Directors {
		lines = append(lines, fmt.Sprintf("  • Dr. %s (%s)", orDash(d.FullName()), orDash(d.Jurisdiction)))
	}
	for _, n := range set.Nurses {
		lines = append(lines, fmt.Sprintf("  • Nurse %s, %s (%s)", orDash(n.Ticket), orDash(n.LicenseType), orDash(n.Jurisdiction)))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total: %d\n", set.Len()))
	if set.FallbackApplied {
		sb.WriteString("No candidate matched the filters; showing the unfiltered pool.\n")
	}
	for i, line := range lines {
		if i == maxCandidatesToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(lines)-maxCandidatesToShow))
			break
		}
		sb.WriteString(line + "\n")
	}

	p.printBox("CANDIDATES", sb.String())
}

// PrintMatchResult outputs one card per match.
func (p *Printer) PrintMatchResult(result *types.MatchResult) {
	if result == nil {
		return
	}

	if result.PersonType != "" {
		p.printBox("CLASSIFICATION", "Identified as: "+result.PersonType)
	}

	if len(result.Matches) == 0 {
		p.printBox("MATCHES", "No matches were returned.")
	}
	for i, m := range result.Matches {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Email:  %s\n", orDash(m.Email)))
		sb.WriteString(fmt.Sprintf("Score:  %.1f/10\n\n", m.MatchScore))
		sb.WriteString(orDash(m.Reasoning))
		p.printBox(fmt.Sprintf("MATCH #%d: %s", i+1, orDash(m.Name)), sb.String())
	}

	if len(result.Warnings) > 0 {
		p.printBox("WARNINGS", "  • "+strings.Join(result.Warnings, "\n  • "))
	}
}

// PrintRawReply outputs an unparseable reply verbatim for debugging.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRawReply(raw string) {
	fmt.Fprintln(p.out, "Raw LLM reply:")
	fmt.Fprintln(p.out, raw)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// wrap splits line into chunks of at most width runes, breaking on spaces
// where possible.
func wrap(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}

	var out []string
	var current []rune
	for _, word := range strings.Fields(line) {
		w := []rune(word)
		for len(w) > width {
			if len(current) > 0 {
				out = append(out, string(current))
				current = nil
			}
			out = append(out, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(current) == 0:
			current = w
		case len(current)+1+len(w) <= width:
			current = append(append(current, ' '), w...)
		default:
			out = append(out, string(current))
			current = w
		}
	}
	if len(current) > 0 {
		out = append(out, string(current))
	}
	return out
}
