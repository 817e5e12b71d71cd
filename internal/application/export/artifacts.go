package export

import (
	"fmt"
	"sort"
	"strconv"

	periodapp "github.com/chefstock/backend/internal/application/period"
)

// Artifact builders for the period close outputs. Rows are sorted on stable
// keys before rendering so two exports of the same period are byte-identical
// regardless of storage order.

// Valuation renders the frozen valuation snapshot of a closed period
func (s *Service) Valuation(resp *periodapp.ClosePeriodResponse) (*Artifact, error) {
	rows := make([]periodapp.ValuationRowResponse, len(resp.Valuation))
	copy(rows, resp.Valuation)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ItemID != rows[j].ItemID {
			return rows[i].ItemID.String() < rows[j].ItemID.String()
		}
		return rows[i].LocationID.String() < rows[j].LocationID.String()
	})

	header := []string{"item_id", "location_id", "qty_on_hand", "unit_cost", "total_value"}
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			r.ItemID.String(),
			r.LocationID.String(),
			r.QtyOnHand.String(),
			r.UnitCost.String(),
			r.TotalValue.String(),
		})
	}

	name := fmt.Sprintf("valuation_%s.csv", resp.PeriodID)
	return s.Build(name, header, data)
}

// Movements renders the movement summary of a closed period
func (s *Service) Movements(resp *periodapp.ClosePeriodResponse) (*Artifact, error) {
	rows := make([]periodapp.MovementSummaryRowResponse, len(resp.Movements))
	copy(rows, resp.Movements)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Reason < rows[j].Reason
	})

	header := []string{"reason", "qty_delta", "value", "entries"}
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			r.Reason,
			r.QtyDelta.String(),
			r.Value.String(),
			strconv.FormatInt(r.Entries, 10),
		})
	}

	name := fmt.Sprintf("movements_%s.csv", resp.PeriodID)
	return s.Build(name, header, data)
}

// Reconciliation renders the ledger-vs-journal report for a period
func (s *Service) Reconciliation(resp *periodapp.ReconciliationResponse) (*Artifact, error) {
	rows := make([]periodapp.CategoryComparisonResponse, len(resp.Categories))
	copy(rows, resp.Categories)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Category < rows[j].Category
	})

	header := []string{"category", "ledger_value", "journal_value", "difference", "status", "ledger_entries"}
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			r.Category,
			r.LedgerValue.String(),
			r.JournalValue.String(),
			r.Difference.String(),
			r.Status,
			strconv.FormatInt(r.LedgerEntries, 10),
		})
	}

	name := fmt.Sprintf("reconciliation_%s.csv", resp.PeriodID)
	return s.Build(name, header, data)
}
