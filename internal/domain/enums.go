package domain

// PageType classifies a document page by its content.
type PageType string

const (
	PageTypeBillDetail PageType = "Bill Detail"
	PageTypeFinalBill  PageType = "Final Bill"
	PageTypeOther      PageType = "Other"
)

// NormalizePageType coerces an arbitrary page type label into a known PageType.
// Unrecognized labels map to PageTypeOther.
func NormalizePageType(s string) PageType {
	switch PageType(s) {
	case PageTypeBillDetail, PageTypeFinalBill:
		return PageType(s)
	default:
		return PageTypeOther
	}
}

// RiskLevel is the advisory fraud risk classification for a document.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// AllowedContentTypes maps the MIME content types accepted for extraction.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}
