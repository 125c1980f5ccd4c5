package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"emberfree_go_backend/internal/docstore"
	"emberfree_go_backend/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// UsageReportService renders the month's AI spend as a PDF for the
// operator: global budget position on top, per-user ledger lines below.
type UsageReportService struct {
	store         docstore.Store
	budget        BudgetWatcher
	monthlyBudget float64
	now           func() time.Time
}

func NewUsageReportService(store docstore.Store, budget BudgetWatcher, monthlyBudget float64) *UsageReportService {
	return &UsageReportService{
		store:         store,
		budget:        budget,
		monthlyBudget: monthlyBudget,
		now:           time.Now,
	}
}

func (s *UsageReportService) MonthlyReport(ctx context.Context) ([]byte, error) {
	docs, err := s.store.List(ctx, usageKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}

	records := make([]models.UsageRecord, 0, len(docs))
	for _, raw := range docs {
		var rec models.UsageRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].TotalCostThisMonth > records[j].TotalCostThisMonth
	})

	used, remaining, active := s.budget.Stats(ctx)
	month := s.now().UTC().Format("January 2006")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("AI Usage Report - %s", month))
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Global budget: $%.2f   Spent: $%.4f   Remaining: $%.4f", s.monthlyBudget, used, remaining))
	pdf.Ln(7)
	stopLabel := "inactive"
	if active {
		stopLabel = "ACTIVE"
	}
	pdf.Cell(0, 7, fmt.Sprintf("Emergency stop: %s   Tracked users: %d", stopLabel, len(records)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(70, 7, "User", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Calls (month)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Calls (day)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Cost (USD)", "1", 0, "R", false, 0, "")
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 9)
	for _, rec := range records {
		pdf.CellFormat(70, 6, rec.UserID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", rec.MonthlyCallsUsed), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", rec.DailyCallsUsed), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.4f", rec.TotalCostThisMonth), "1", 0, "R", false, 0, "")
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render usage report: %w", err)
	}
	return buf.Bytes(), nil
}
