package port

import "medibill/internal/domain"

// FraudScanner computes advisory visual fraud indicators over page images.
// The report is informational only and never blocks extraction.
type FraudScanner interface {
	Scan(pages []domain.PageImage) domain.FraudReport
}
