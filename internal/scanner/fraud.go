// Package scanner implements heuristic visual fraud indicators over page
// images. All checks are stateless pure functions; the resulting report is
// advisory metadata only and never gates extraction.
package scanner

import (
	"image"
	"image/color"
	"log"
	"sort"

	"github.com/disintegration/gift"

	"medibill/internal/domain"
)

const (
	// Anomalously high white content suggests whitener / correction fluid.
	whiteLumaCutoff = 240
	whiteRatioLimit = 0.15

	// Dense edge coverage suggests overwriting or text overlaps.
	edgeMagnitudeCutoff = 128
	edgeRatioLimit      = 0.12

	// High variance in stroke gradient magnitude suggests mixed fonts.
	strokeVarianceLimit = 500.0
)

const (
	IndicatorWhitenerMarks     = "whitener_marks"
	IndicatorOverwriting       = "overwriting"
	IndicatorFontInconsistency = "font_inconsistency"
)

// HeuristicScanner implements port.FraudScanner over the page heuristics below.
type HeuristicScanner struct{}

// NewHeuristicScanner creates a HeuristicScanner.
func NewHeuristicScanner() *HeuristicScanner {
	return &HeuristicScanner{}
}

// Scan runs the per-page indicator checks and folds them into one report.
// Risk is the worst single-page classification.
func (s *HeuristicScanner) Scan(pages []domain.PageImage) domain.FraudReport {
	indicatorSet := map[string]bool{}
	worst := domain.RiskLow

	for _, page := range pages {
		found := DetectIndicators(page.Image)
		for _, ind := range found {
			indicatorSet[ind] = true
		}
		if risk := riskFor(len(found)); riskRank(risk) > riskRank(worst) {
			worst = risk
		}
	}

	indicators := make([]string, 0, len(indicatorSet))
	for ind := range indicatorSet {
		indicators = append(indicators, ind)
	}
	sort.Strings(indicators)

	report := domain.FraudReport{
		RiskLevel:    worst,
		Indicators:   indicators,
		PagesScanned: len(pages),
	}
	if worst != domain.RiskLow {
		log.Printf("scanner.HeuristicScanner: fraud indicators detected: risk=%s indicators=%v", worst, indicators)
	}
	return report
}

// DetectIndicators runs all heuristics over a single page image and returns
// the names of the indicators that fired.
func DetectIndicators(img image.Image) []string {
	var found []string
	if whiteRatio(img) > whiteRatioLimit {
		found = append(found, IndicatorWhitenerMarks)
	}

	ratio, variance := edgeStats(img)
	if ratio > edgeRatioLimit {
		found = append(found, IndicatorOverwriting)
	}
	if variance > strokeVarianceLimit {
		found = append(found, IndicatorFontInconsistency)
	}
	return found
}

func riskFor(indicatorCount int) domain.RiskLevel {
	switch {
	case indicatorCount >= 2:
		return domain.RiskHigh
	case indicatorCount == 1:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func riskRank(r domain.RiskLevel) int {
	switch r {
	case domain.RiskHigh:
		return 2
	case domain.RiskMedium:
		return 1
	default:
		return 0
	}
}

// whiteRatio is the fraction of pixels brighter than the white cutoff.
func whiteRatio(img image.Image) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	white := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if luma(img.At(x, y)) >= whiteLumaCutoff {
				white++
			}
		}
	}
	return float64(white) / float64(total)
}

// edgeStats runs a Sobel pass and returns the fraction of strong-edge pixels
// and the variance of nonzero edge magnitudes.
func edgeStats(img image.Image) (ratio, variance float64) {
	g := gift.New(gift.Grayscale(), gift.Sobel())
	edges := image.NewGray(g.Bounds(img.Bounds()))
	g.Draw(edges, img)

	b := edges.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0, 0
	}

	strong := 0
	var sum, sumSq float64
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			m := float64(edges.GrayAt(x, y).Y)
			if m >= edgeMagnitudeCutoff {
				strong++
			}
			if m > 0 {
				sum += m
				sumSq += m * m
				n++
			}
		}
	}
	ratio = float64(strong) / float64(total)
	if n > 1 {
		mean := sum / float64(n)
		variance = sumSq/float64(n) - mean*mean
	}
	return ratio, variance
}

func luma(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}
