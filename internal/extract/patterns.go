package extract

import (
	"regexp"

	"github.com/urduaiorg/tracker/constants"
)

// The extraction rules are declarative tables: adding a platform or a
// metric is a data change here, not a code change in the engine.

// metricPattern ties a canonical metric name to the label pattern that
// captures its value. Each pattern's second capture group is the value;
// a third group, when present, is a unit suffix kept on the value.
type metricPattern struct {
	name string
	re   *regexp.Regexp
}

// Labels accept an English form and at least one Urdu alias, since the
// source screenshots come from localized app UIs.
var metricPatterns = []metricPattern{
	{"followers", regexp.MustCompile(`(?i)(Followers|سبسکرائبرز|Subscribers|Following)[\s:]*([\d,\.]+)`)},
	{"likes", regexp.MustCompile(`(?i)(Likes|پسند)[\s:]*([\d,\.]+)`)},
	{"views", regexp.MustCompile(`(?i)(Views|دیکھا گیا)[\s:]*([\d,\.]+)`)},
	{"shares", regexp.MustCompile(`(?i)(Shares|شیئر)[\s:]*([\d,\.]+)`)},
	{"comments", regexp.MustCompile(`(?i)(Comments|تبصرے)[\s:]*([\d,\.]+)`)},
	{"engagement", regexp.MustCompile(`(?i)(Engagement|مصروفیت)[\s:]*([\d,\.%]+)`)},
	{"impressions", regexp.MustCompile(`(?i)(Impressions|تاثرات)[\s:]*([\d,\.]+)`)},
	{"reach", regexp.MustCompile(`(?i)(Reach|پہنچ)[\s:]*([\d,\.]+)`)},
	{"watchTime", regexp.MustCompile(`(?i)(Watch Time|وقت دیکھا)[\s:]*([\d,\.]+)\s*(hours|mins|minutes|hrs)`)},
}

// MetricNames lists the canonical metric names the engine can extract,
// in scan order.
func MetricNames() []string {
	out := make([]string, 0, len(metricPatterns))
	for _, p := range metricPatterns {
		out = append(out, p.name)
	}
	return out
}

// Platform detection is ordered: the first matching pattern wins.
var platformPatterns = []struct {
	platform constants.Platform
	re       *regexp.Regexp
}{
	{constants.PlatformInstagram, regexp.MustCompile(`(?i)Instagram|انسٹاگرام`)},
	{constants.PlatformYouTube, regexp.MustCompile(`(?i)YouTube|یوٹیوب`)},
	{constants.PlatformTikTok, regexp.MustCompile(`(?i)TikTok|ٹک ٹاک`)},
	{constants.PlatformTwitter, regexp.MustCompile(`(?i)Twitter|ٹویٹر|\bX\b`)},
	{constants.PlatformFacebook, regexp.MustCompile(`(?i)Facebook|Meta|فیس بک`)},
	{constants.PlatformLinkedIn, regexp.MustCompile(`(?i)LinkedIn|لنکڈان`)},
}

// rePeriod recognizes "Month YYYY" (abbreviated month names) and
// MM/DD/YYYY or MM-DD-YYYY date shapes.
var rePeriod = regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4}`)
