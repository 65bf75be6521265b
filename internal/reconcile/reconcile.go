package reconcile

import (
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"medibill/internal/config"
	"medibill/internal/domain"
)

// Options holds the reconciliation policy.
type Options struct {
	// Tolerance for accepting a provided amount over quantity*rate:
	// max(TolerancePct * amount, ToleranceAbs).
	TolerancePct float64
	ToleranceAbs float64
	// AllowNegativeAmounts accepts negative monetary values (discounts,
	// refunds) as valid items. Off by default; negatives then invalidate
	// the item.
	AllowNegativeAmounts bool
}

// DefaultOptions returns the default policy: tolerance max(1%, 1 unit),
// negative amounts rejected.
func DefaultOptions() Options {
	return Options{
		TolerancePct: 0.01,
		ToleranceAbs: 1.00,
	}
}

// OptionsFromConfig maps the reconcile config section onto Options.
func OptionsFromConfig(cfg *config.ReconcileConfig) Options {
	return Options{
		TolerancePct:         cfg.TolerancePct,
		ToleranceAbs:         cfg.ToleranceAbs,
		AllowNegativeAmounts: cfg.AllowNegativeAmounts,
	}
}

// Reconciler parses raw model text into validated extraction data.
type Reconciler struct {
	opts   Options
	tolPct decimal.Decimal
	tolAbs decimal.Decimal
}

// NewReconciler creates a Reconciler with the given policy.
func NewReconciler(opts Options) *Reconciler {
	return &Reconciler{
		opts:   opts,
		tolPct: decimal.NewFromFloat(opts.TolerancePct),
		tolAbs: decimal.NewFromFloat(opts.ToleranceAbs),
	}
}

// Process runs the full pipeline over raw model text: parse, normalize,
// complete amounts, deduplicate, aggregate. Hard failures return
// domain.ErrMalformedResponse or domain.ErrNoLineItems; per-item failures
// drop the item with a warning and never corrupt the item count.
func (r *Reconciler) Process(rawText string) (*domain.ExtractionData, error) {
	ext, err := decode(rawText)
	if err != nil {
		return nil, err
	}
	return r.reconcile(ext)
}

func (r *Reconciler) reconcile(ext *rawExtraction) (*domain.ExtractionData, error) {
	pages := make([]domain.PageResult, 0, len(ext.PagewiseLineItems))
	total := 0

	for i, rp := range ext.PagewiseLineItems {
		pageNo := toPageNo(rp.PageNo, i)
		pageType := domain.NormalizePageType(toString(rp.PageType))

		items := make([]domain.BillItem, 0, len(rp.BillItems))
		for _, ri := range rp.BillItems {
			item, err := r.completeItem(ri)
			if err != nil {
				log.Printf("reconcile.Reconciler: dropping item on page %s: %v", pageNo, err)
				continue
			}
			items = append(items, item)
		}

		items = r.dedupPage(pageNo, pageType, items)
		total += len(items)

		pages = append(pages, domain.PageResult{
			PageNo:    pageNo,
			PageType:  pageType,
			BillItems: items,
		})
	}

	if total == 0 {
		return nil, domain.ErrNoLineItems
	}

	return &domain.ExtractionData{
		PagewiseLineItems: pages,
		TotalItemCount:    total,
	}, nil
}

// completeItem normalizes the candidate's numeric fields and derives any
// missing one. The provided amount is authoritative when present since it
// reflects the document truth; a mismatch against quantity*rate beyond
// tolerance is a soft warning, not a failure.
func (r *Reconciler) completeItem(ri rawItem) (domain.BillItem, error) {
	name := strings.TrimSpace(toString(ri.ItemName))
	if name == "" {
		name = "Unknown"
	}

	qty, qtyOK, err := normalizeField(ri.ItemQuantity, false)
	if err != nil {
		return domain.BillItem{}, fmt.Errorf("%q quantity: %w", name, err)
	}
	rate, rateOK, err := normalizeField(ri.ItemRate, r.opts.AllowNegativeAmounts)
	if err != nil {
		return domain.BillItem{}, fmt.Errorf("%q rate: %w", name, err)
	}
	amount, amountOK, err := normalizeField(ri.ItemAmount, r.opts.AllowNegativeAmounts)
	if err != nil {
		return domain.BillItem{}, fmt.Errorf("%q amount: %w", name, err)
	}

	if !amountOK && !qtyOK && !rateOK {
		return domain.BillItem{}, fmt.Errorf("%w: %q", domain.ErrIncompleteLineItem, name)
	}

	// A zero amount next to a positive rate means the amount column was
	// blank, not that the item was free.
	if amountOK && amount.IsZero() && rateOK && rate.IsPositive() {
		amountOK = false
	}

	if !amountOK {
		if !rateOK {
			return domain.BillItem{}, fmt.Errorf("%w: %q has quantity but no rate or amount", domain.ErrIncompleteLineItem, name)
		}
		if !qtyOK {
			qty = decimal.NewFromInt(1)
		}
		amount = qty.Mul(rate).Round(2)
	} else {
		if !qtyOK {
			qty = decimal.NewFromInt(1)
		}
		if !rateOK {
			// Rate absent: the amount stands in for it (single-unit pricing).
			rate = amount
			if !qty.IsZero() {
				rate = amount.Div(qty).Round(2)
			}
		} else if computed := qty.Mul(rate).Round(2); !r.withinTolerance(amount, computed) {
			log.Printf("reconcile.Reconciler: %q amount %s disagrees with quantity*rate %s; keeping document amount",
				name, amount, computed)
		}
	}

	return domain.BillItem{
		ItemName:     name,
		ItemQuantity: qty.InexactFloat64(),
		ItemRate:     rate.InexactFloat64(),
		ItemAmount:   amount.Round(2).InexactFloat64(),
	}, nil
}

// withinTolerance reports whether a and b agree within
// max(TolerancePct * |a|, ToleranceAbs).
func (r *Reconciler) withinTolerance(a, b decimal.Decimal) bool {
	tol := a.Abs().Mul(r.tolPct)
	if tol.LessThan(r.tolAbs) {
		tol = r.tolAbs
	}
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}
