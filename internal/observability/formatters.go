// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/cranium/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// writeItems lists up to maxItemsToShow items as "kind  text" lines.
func writeItems(sb *strings.Builder, items []types.Item) {
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		it := items[i]
		text := ""
		if it.Payload != nil {
			text = it.Payload.Text()
		}
		fmt.Fprintf(sb, "  • [%s] %s\n", it.Kind, truncate(text, 40))
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
	}
}

// PrintProfile outputs how many items of each kind a profile contributes.
func (p *Printer) PrintProfile(profile *types.ProfileSnapshot) {
	if profile == nil {
		return
	}

	items := profile.Items()
	counts := make(map[types.ItemKind]int)
	for _, it := range items {
		counts[it.Kind]++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:   %s\n", profile.Personal.Name)
	fmt.Fprintf(&sb, "Items:  %d\n\n", len(items))
	for _, kind := range types.AllKinds {
		if counts[kind] > 0 {
			fmt.Fprintf(&sb, "  %-14s %d\n", kind, counts[kind])
		}
	}

	p.printBox("PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAdviceRequest outputs the context one advisory evaluation will see.
func (p *Printer) PrintAdviceRequest(req types.AdviceRequest) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Focus:        %s\n", req.Focus.ItemID)
	if req.TargetRole != "" {
		fmt.Fprintf(&sb, "Target role:  %s\n", req.TargetRole)
	}
	fmt.Fprintf(&sb, "Available:    %d items\n\n", len(req.AvailableItemContext))

	if len(req.ChosenItems) > 0 {
		fmt.Fprintf(&sb, "Chosen (%d):\n", len(req.ChosenItems))
		writeItems(&sb, req.ChosenItems)
	}
	if len(req.LastActions) > 0 {
		sb.WriteString("\nRecent actions:\n")
		for _, e := range req.LastActions {
			fmt.Fprintf(&sb, "  • %s %s\n", e.Action, e.ItemID)
		}
	}

	p.printBox("ADVICE REQUEST", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAdvice outputs the alert text an advice result would produce.
func (p *Printer) PrintAdvice(advice types.Advice) {
	if advice == nil {
		return
	}

	title := "ADVICE"
	switch advice.(type) {
	case *types.Suggestion:
		title = "SUGGESTION"
	case *types.Coaching:
		title = "COACHING"
	}
	p.printBox(title, advice.AlertMessage())
}

// PrintExport outputs a summary of an export document.
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) PrintExport(doc types.ExportDocument) {
	if len(doc.Items) == 0 && len(doc.Sections) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NOTHING CHOSEN")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Exported %d items:\n", len(doc.Items))
	count := min(len(doc.Items), maxItemsToShow)
	for i := 0; i < count; i++ {
		it := doc.Items[i]
		text := ""
		if it.Payload != nil {
			text = it.Payload.Text()
		}
		fmt.Fprintf(&sb, "  • [%s] %s\n", it.Kind, truncate(text, 40))
	}
	if len(doc.Items) > maxItemsToShow {
		fmt.Fprintf(&sb, "  ... and %d more\n", len(doc.Items)-maxItemsToShow)
	}
	for _, sec := range doc.Sections {
		fmt.Fprintf(&sb, "\n%s (%d items)\n", sec.Title, len(sec.Items))
	}

	p.printBox("EXPORT", strings.TrimSuffix(sb.String(), "\n"))
}
