package reconcile

import (
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"medibill/internal/domain"
)

// dedupPage drops repeated reports of the same physical line item on one
// page: same normalized name and same amount within tolerance. The first
// occurrence wins; quantities are never merged. Summary rows (total,
// sub-total, grand total) and Final Bill pages are structurally distinct
// and never deduplicated.
func (r *Reconciler) dedupPage(pageNo string, pageType domain.PageType, items []domain.BillItem) []domain.BillItem {
	if pageType == domain.PageTypeFinalBill {
		return items
	}

	out := make([]domain.BillItem, 0, len(items))
	for _, item := range items {
		if isTotalRow(item.ItemName) {
			out = append(out, item)
			continue
		}

		dup := false
		for _, kept := range out {
			if isTotalRow(kept.ItemName) {
				continue
			}
			if normalizeName(kept.ItemName) == normalizeName(item.ItemName) &&
				r.withinTolerance(decimal.NewFromFloat(kept.ItemAmount), decimal.NewFromFloat(item.ItemAmount)) {
				dup = true
				break
			}
		}
		if dup {
			log.Printf("reconcile.Reconciler: dropping duplicate item %q (%.2f) on page %s", item.ItemName, item.ItemAmount, pageNo)
			continue
		}
		out = append(out, item)
	}
	return out
}

// normalizeName lowercases and collapses internal whitespace for duplicate
// comparison.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// isTotalRow identifies sub-total / total / grand-total style summary rows.
func isTotalRow(name string) bool {
	n := strings.Trim(normalizeName(name), ":-. ")
	switch n {
	case "total", "subtotal", "sub-total", "sub total", "grand total", "net amount", "amount payable", "net payable":
		return true
	}
	return strings.HasSuffix(n, " total")
}
