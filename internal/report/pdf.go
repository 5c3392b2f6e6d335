package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/crucial707/asset-audit/internal/audit"
	"github.com/crucial707/asset-audit/internal/models"
)

// PDFExporter renders a summary as a PDF document.
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export lays the report sections out in the same order as the text report.
func (e *PDFExporter) Export(s audit.Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(Title, true)
	pdf.AddPage()

	e.addHeader(pdf, s)
	e.addCounts(pdf, "Assets by Environment", s.Environments.Entries())
	e.addRiskLevels(pdf, s)
	e.addAssets(pdf, "Internet-Exposed Assets", s.Exposed)
	e.addAssets(pdf, "High-Priority Assets", s.HighPriority)
	e.addTopTeams(pdf, s)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, s audit.Summary) {
	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 12, Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(90, 90, 90)
	if s.RunID != "" {
		pdf.CellFormat(0, 6, "Run ID: "+s.RunID, "", 1, "L", false, 0, "")
	}
	if !s.GeneratedAt.IsZero() {
		pdf.CellFormat(0, 6, "Generated: "+s.GeneratedAt.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "API URL: "+s.SourceURL, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status Code: %d", s.StatusCode), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Assets: %d", s.TotalAssets), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (e *PDFExporter) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 13)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 9, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.Ln(1)
}

func (e *PDFExporter) addCounts(pdf *gofpdf.Fpdf, title string, counts []audit.Count) {
	e.sectionTitle(pdf, title)
	if len(counts) == 0 {
		pdf.CellFormat(0, 6, noneFound, "", 1, "L", false, 0, "")
	}
	for _, c := range counts {
		pdf.CellFormat(60, 6, c.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprint(c.Count), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
}

func (e *PDFExporter) addRiskLevels(pdf *gofpdf.Fpdf, s audit.Summary) {
	e.sectionTitle(pdf, "Assets by Risk Level")
	for _, c := range s.RiskLevels.Entries() {
		r, g, b := riskColor(models.RiskLevel(c.Name))
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(60, 6, c.Name, "", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(20, 6, fmt.Sprint(c.Count), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
}

func (e *PDFExporter) addAssets(pdf *gofpdf.Fpdf, title string, assets []audit.ReportedAsset) {
	e.sectionTitle(pdf, title)
	if len(assets) == 0 {
		pdf.CellFormat(0, 6, noneFound, "", 1, "L", false, 0, "")
		pdf.Ln(3)
		return
	}
	pdf.SetFont("Arial", "", 8)
	for _, a := range assets {
		pdf.CellFormat(0, 5, AssetLine(a), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Arial", "", 10)
	pdf.Ln(3)
}

func (e *PDFExporter) addTopTeams(pdf *gofpdf.Fpdf, s audit.Summary) {
	e.sectionTitle(pdf, fmt.Sprintf("Top %d Teams by High-Risk Assets", audit.TopTeamsLimit))
	if len(s.TopTeams) == 0 {
		pdf.CellFormat(0, 6, noHighRiskAssets, "", 1, "L", false, 0, "")
		return
	}
	for i, c := range s.TopTeams {
		pdf.CellFormat(10, 6, fmt.Sprintf("%d.", i+1), "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, c.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprint(c.Count), "", 1, "R", false, 0, "")
	}
}

func riskColor(l models.RiskLevel) (r, g, b int) {
	switch l {
	case models.RiskHigh:
		return 220, 53, 69
	case models.RiskMedium:
		return 255, 149, 0
	default:
		return 40, 167, 69
	}
}
