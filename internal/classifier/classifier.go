package classifier

import (
	"strings"
)

// ContentDetector decides whether free text is CV material by counting
// indicator keywords.
type ContentDetector struct {
	minLength     int
	minIndicators int
	indicators    []string
}

var cvIndicators = []string{
	"experience", "education", "skills", "accomplishment", "employment",
	"professional", "qualification", "certification", "university", "degree",
}

func NewContentDetector(minLength, minIndicators int) *ContentDetector {
	return &ContentDetector{
		minLength:     minLength,
		minIndicators: minIndicators,
		indicators:    cvIndicators,
	}
}

var defaultDetector = NewContentDetector(200, 2)

// LooksLikeCV uses the default thresholds: at least 200 characters and two
// distinct indicator words.
func LooksLikeCV(text string) bool {
	return defaultDetector.LooksLikeCV(text)
}

func (d *ContentDetector) LooksLikeCV(text string) bool {
	if len(text) < d.minLength {
		return false
	}
	return len(d.Indicators(text)) >= d.minIndicators
}

// Indicators returns the indicator words present in text.
func (d *ContentDetector) Indicators(text string) []string {
	text = strings.ToLower(text)
	found := make([]string, 0, len(d.indicators))
	for _, indicator := range d.indicators {
		if strings.Contains(text, indicator) {
			found = append(found, indicator)
		}
	}
	return found
}
