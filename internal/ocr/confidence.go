package ocr

import (
	"regexp"
	"strings"
)

var (
	rePlatform    = regexp.MustCompile(`\b(instagram|youtube|tiktok|twitter|facebook|linkedin)\b`)
	reMetricLabel = regexp.MustCompile(`\b(followers|subscribers|likes|views|shares|comments|engagement|impressions|reach|watch time)\b`)
	reFigure      = regexp.MustCompile(`\b\d{1,3}(,\d{3})+\b|\b\d+(\.\d+)?%`)
)

func hasPlatformName(s string) bool { return rePlatform.MatchString(s) }
func hasMetricLabel(s string) bool  { return reMetricLabel.MatchString(s) }
func hasFigure(s string) bool       { return reFigure.MatchString(s) }

// naive heuristic confidence based on decoded text characteristics:
// analytics screenshots should name a platform, label metrics, and
// carry formatted figures.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if hasPlatformName(txtL) {
		score += 0.2
	}
	if hasMetricLabel(txtL) {
		score += 0.25
	}
	if hasFigure(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
