package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDF renders the evaluation report as a PDF document. Same content as the
// markdown report, paginated.
func (g *Generator) PDF(ctx context.Context, tutorialID string) ([]byte, error) {
	data, err := g.load(ctx, tutorialID)
	if err != nil {
		return nil, err
	}
	t := data.Tutorial

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, fmt.Sprintf("Evaluation Report: %s", t.Name), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Repository: %s (branch %s)", t.RepoURL, t.Branch), "", 1, "L", false, 0, "")
	if t.LastEvaluatedAt != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Last evaluated: %s", t.LastEvaluatedAt.Format(time.RFC3339)), "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Overall score: %d (grade %s)", t.OverallScore, t.Grade), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Issues: %d high, %d medium, %d low", t.HighIssues, t.MediumIssues, t.LowIssues), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Chapter score table
	pdf.SetFont("Helvetica", "B", 9)
	headers := []string{"#", "Chapter", "Score", "Grade", "Depth", "Acc", "Comp", "Logic", "Read"}
	widths := []float64{8, 62, 14, 14, 14, 14, 14, 14, 14}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, c := range data.Chapters {
		title := c.Title
		if len(title) > 38 {
			title = title[:35] + "..."
		}
		cells := []string{
			fmt.Sprintf("%d", c.OrderIndex+1),
			title,
			fmt.Sprintf("%d", c.OverallScore),
			c.Grade,
			fmt.Sprintf("%d", c.DepthScore),
			fmt.Sprintf("%d", c.AccuracyScore),
			fmt.Sprintf("%d", c.CompletenessScore),
			fmt.Sprintf("%d", c.LogicScore),
			fmt.Sprintf("%d", c.ReadabilityScore),
		}
		for i, cell := range cells {
			align := "C"
			if i == 1 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	// Per-chapter issue listings
	for _, c := range data.Chapters {
		chapterIssues := data.Issues[c.ID]
		if len(chapterIssues) == 0 {
			continue
		}

		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d. %s", c.OrderIndex+1, c.Title), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for _, issue := range chapterIssues {
			line := fmt.Sprintf("P%d [%s/%s] %s", issue.Priority, issue.Category, issue.Severity, issue.Description)
			if issue.Location != "" {
				line += fmt.Sprintf(" (%s)", issue.Location)
			}
			pdf.MultiCell(0, 5, line, "", "L", false)
			if issue.Suggestion != "" {
				pdf.MultiCell(0, 5, "    Fix: "+issue.Suggestion, "", "L", false)
			}
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
