package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/docmatch/internal/grouping"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// RenderReport summarizes a match report for the terminal.
func RenderReport(r model.MatchReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s (%s) %s %s (%s)\n",
		DocumentIcon, BoldStyle.Render(r.Documents[0].ID), r.Documents[0].Kind,
		LinkIcon, BoldStyle.Render(r.Documents[1].ID), r.Documents[1].Kind)

	fmt.Fprintf(&b, "Certainty: %s\n", FormatCertainty(r.Certainty(), "unavailable"))
	fmt.Fprintf(&b, "Labels:    %s\n", renderLabels(r.Labels))
	if m, ok := r.Metric(model.MetricDeviationSeverity); ok {
		if s, ok := m.Value.(model.Severity); ok {
			fmt.Fprintf(&b, "Severity:  %s\n", FormatSeverity(s))
		}
	}

	if len(r.Deviations) > 0 {
		b.WriteString("\n" + TableHeaderStyle.Render("Document deviations") + "\n")
		for _, d := range r.Deviations {
			b.WriteString(renderDeviation(d) + "\n")
		}
	}

	if len(r.ItemPairs) > 0 {
		b.WriteString("\n" + TableHeaderStyle.Render("Item pairs") + "\n")
		for _, p := range r.ItemPairs {
			b.WriteString(renderItemPair(p) + "\n")
			for _, d := range p.Deviations {
				b.WriteString("    " + renderDeviation(d) + "\n")
			}
		}
	}

	return RenderBox("Match report "+r.ID, strings.TrimRight(b.String(), "\n"))
}

func renderLabels(labels []string) string {
	if len(labels) == 0 {
		return SubtleStyle.Render("none")
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = LabelStyle(l).Render(l)
	}
	return strings.Join(out, ", ")
}

func renderDeviation(d model.Deviation) string {
	return fmt.Sprintf("%s %s %s",
		SeverityStyle(d.Severity).Render(fmt.Sprintf("[%s]", d.Severity)),
		TableCellStyle.Render(string(d.Code)),
		d.Message)
}

func renderIndex(i *int) string {
	if i == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *i)
}

func renderItemPair(p model.ItemPair) string {
	indices := fmt.Sprintf("%s ↔ %s", renderIndex(p.ItemIndices[0]), renderIndex(p.ItemIndices[1]))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		TableCellStyle.Render(fmt.Sprintf("%-9s", indices)),
		TableCellStyle.Render(fmt.Sprintf("%-9s", p.MatchType)),
		TableCellStyle.Render(fmt.Sprintf("%.2f", p.ItemUnchangedCertainty)),
		FormatSeverity(p.DeviationSeverity),
	)
}

// RenderReports summarizes a ranked candidate list, one line per report.
func RenderReports(reports []model.MatchReport) string {
	if len(reports) == 0 {
		return FormatInfo("No candidates")
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-4s %-24s %-10s %s", "#", "Candidate", "Certainty", "Labels")) + "\n")
	for i, r := range reports {
		certainty := "-"
		if c := r.Certainty(); c != nil {
			certainty = fmt.Sprintf("%.2f", *c)
		}
		fmt.Fprintf(&b, "%-4d %-24s %-10s %s\n", i+1, r.Documents[1].ID, certainty, renderLabels(r.Labels))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderGroups lists three-way groups.
func RenderGroups(groups []grouping.ThreeWayGroup) string {
	if len(groups) == 0 {
		return FormatInfo("No documents")
	}

	var b strings.Builder
	for i, g := range groups {
		docs := make([]string, len(g.Documents))
		for j, ref := range g.Documents {
			docs[j] = fmt.Sprintf("%s (%s)", ref.ID, ref.Kind)
		}
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render(fmt.Sprintf("Group %d:", i+1)), strings.Join(docs, ", "))

		if len(g.SharedLines) > 0 {
			lines := make([]string, len(g.SharedLines))
			for j, l := range g.SharedLines {
				lines[j] = l.PurchaseOrder + "#" + l.Line
			}
			fmt.Fprintf(&b, "  %s\n", SubtleStyle.Render("shared lines: "+strings.Join(lines, ", ")))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderMergeDecision reports the outcome of a merge check.
func RenderMergeDecision(d grouping.MergeDecision) string {
	counts := SubtleStyle.Render(fmt.Sprintf("items: invoice %d, delivery %d, purchase order %d; direct pairs %d",
		d.InvoiceItems, d.DeliveryItems, d.PurchaseOrderItems, d.MatchedPairCount))
	if d.Result == grouping.ResultMerge {
		return FormatSuccess(fmt.Sprintf("merge: shared lines %s", strings.Join(d.SharedLines, ", "))) + "\n" + counts
	}
	return FormatWarning(fmt.Sprintf("no merge: %s", d.Reason)) + "\n" + counts
}
