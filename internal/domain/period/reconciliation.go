package period

import (
	"github.com/chefstock/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// ReconciliationCategory groups movement reasons the way the general ledger
// books them, so each category compares against one set of journal postings.
type ReconciliationCategory string

const (
	CategoryPurchases   ReconciliationCategory = "PURCHASES"
	CategoryWaste       ReconciliationCategory = "WASTE"
	CategoryTransfers   ReconciliationCategory = "TRANSFERS"
	CategoryReturns     ReconciliationCategory = "RETURNS"
	CategoryAdjustments ReconciliationCategory = "ADJUSTMENTS"
)

// String returns the string representation of ReconciliationCategory
func (c ReconciliationCategory) String() string {
	return string(c)
}

// AllReconciliationCategories returns every category in report order
func AllReconciliationCategories() []ReconciliationCategory {
	return []ReconciliationCategory{
		CategoryPurchases, CategoryWaste, CategoryTransfers,
		CategoryReturns, CategoryAdjustments,
	}
}

// CategoryForReason maps a movement reason to its reconciliation category
func CategoryForReason(r ledger.MovementReason) ReconciliationCategory {
	switch r {
	case ledger.ReasonInitial, ledger.ReasonReceive:
		return CategoryPurchases
	case ledger.ReasonWaste:
		return CategoryWaste
	case ledger.ReasonTransferOut, ledger.ReasonTransferIn:
		return CategoryTransfers
	case ledger.ReasonReturn:
		return CategoryReturns
	default:
		return CategoryAdjustments
	}
}

// ComparisonStatus is the verdict for one category or the whole report
type ComparisonStatus string

const (
	StatusBalanced    ComparisonStatus = "BALANCED"
	StatusDiscrepancy ComparisonStatus = "DISCREPANCY"
)

// String returns the string representation of ComparisonStatus
func (s ComparisonStatus) String() string {
	return string(s)
}

// JournalPosting is one externally-posted journal amount for the window,
// provided by the accounting boundary. The engine never mutates these.
type JournalPosting struct {
	Category ReconciliationCategory
	Amount   decimal.Decimal
}

// CategoryComparison is one category's ledger-vs-journal comparison
type CategoryComparison struct {
	Category      ReconciliationCategory
	LedgerValue   decimal.Decimal
	JournalValue  decimal.Decimal
	Difference    decimal.Decimal
	Status        ComparisonStatus
	LedgerEntries int64
}

// Report is the full reconciliation result for one period window. It is a
// pure comparison over the two sides; building it mutates neither.
type Report struct {
	Categories []CategoryComparison
	Overall    ComparisonStatus
}

// BuildReport compares aggregated ledger movement values against journal
// postings per category. Amounts are compared exactly after rounding to the
// ledger scale; any non-zero difference is a discrepancy, and the overall
// status is the worst case across categories.
func BuildReport(ledgerTotals []ledger.ReasonTotal, postings []JournalPosting) *Report {
	ledgerByCategory := make(map[ReconciliationCategory]decimal.Decimal)
	entriesByCategory := make(map[ReconciliationCategory]int64)
	for _, t := range ledgerTotals {
		c := CategoryForReason(t.Reason)
		ledgerByCategory[c] = ledgerByCategory[c].Add(t.Value)
		entriesByCategory[c] += t.Entries
	}

	journalByCategory := make(map[ReconciliationCategory]decimal.Decimal)
	for _, p := range postings {
		journalByCategory[p.Category] = journalByCategory[p.Category].Add(p.Amount)
	}

	report := &Report{
		Categories: make([]CategoryComparison, 0, len(AllReconciliationCategories())),
		Overall:    StatusBalanced,
	}

	for _, c := range AllReconciliationCategories() {
		ledgerValue := ledgerByCategory[c].Round(ledger.QuantityScale)
		journalValue := journalByCategory[c].Round(ledger.QuantityScale)
		diff := ledgerValue.Sub(journalValue)

		status := StatusBalanced
		if !diff.IsZero() {
			status = StatusDiscrepancy
			report.Overall = StatusDiscrepancy
		}

		report.Categories = append(report.Categories, CategoryComparison{
			Category:      c,
			LedgerValue:   ledgerValue,
			JournalValue:  journalValue,
			Difference:    diff,
			Status:        status,
			LedgerEntries: entriesByCategory[c],
		})
	}

	return report
}
