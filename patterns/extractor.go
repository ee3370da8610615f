// Package patterns computes heuristic statistics over historical forecasts:
// pattern tagging, per-pattern and per-timeframe success rates, and
// similarity ranking of past setups against current conditions.
package patterns

import "regexp"

// PatternTag identifies one of the fixed chart setups ("kamukamu points").
type PatternTag string

const (
	Point1  PatternTag = "point_1"
	Point2  PatternTag = "point_2"
	Point31 PatternTag = "point_3_1"
	Point32 PatternTag = "point_3_2"
	Point4  PatternTag = "point_4"
	Point5  PatternTag = "point_5"
	Point6  PatternTag = "point_6"
	Point7  PatternTag = "point_7"
	Point8  PatternTag = "point_8"
	Point9  PatternTag = "point_9"
)

type tagRule struct {
	tag PatternTag
	re  *regexp.Regexp
}

// Checked in order; the first hit wins. point_3 sub-variants therefore
// lose to point_1/point_2 when the text mentions several points.
var tagRules = []tagRule{
	{Point1, regexp.MustCompile(`(?i)ポイント1|point.?1`)},
	{Point2, regexp.MustCompile(`(?i)ポイント2|point.?2`)},
	{Point31, regexp.MustCompile(`(?i)ポイント3-1|point.?3.?1`)},
	{Point32, regexp.MustCompile(`(?i)ポイント3-2|point.?3.?2`)},
	{Point4, regexp.MustCompile(`(?i)ポイント4|point.?4`)},
	{Point5, regexp.MustCompile(`(?i)ポイント5|point.?5`)},
	{Point6, regexp.MustCompile(`(?i)ポイント6|point.?6`)},
	{Point7, regexp.MustCompile(`(?i)ポイント7|point.?7`)},
	{Point8, regexp.MustCompile(`(?i)ポイント8|point.?8`)},
	{Point9, regexp.MustCompile(`(?i)ポイント9|point.?9`)},
}

// AllTags returns every tag in extraction priority order.
func AllTags() []PatternTag {
	tags := make([]PatternTag, len(tagRules))
	for i, r := range tagRules {
		tags[i] = r.tag
	}
	return tags
}

// ParsePatternTag validates a tag supplied by a caller.
func ParsePatternTag(s string) (PatternTag, bool) {
	for _, r := range tagRules {
		if string(r.tag) == s {
			return r.tag, true
		}
	}
	return "", false
}

// ExtractPattern returns the first pattern tag mentioned in text.
// No match is a normal outcome and reported as ok == false.
func ExtractPattern(text string) (PatternTag, bool) {
	if text == "" {
		return "", false
	}
	for _, r := range tagRules {
		if r.re.MatchString(text) {
			return r.tag, true
		}
	}
	return "", false
}

// tagIndex orders tags by their extraction priority.
func tagIndex(tag PatternTag) int {
	for i, r := range tagRules {
		if r.tag == tag {
			return i
		}
	}
	return len(tagRules)
}

// DetectPatterns returns every pattern tag mentioned in text, in priority order.
func DetectPatterns(text string) []PatternTag {
	var tags []PatternTag
	if text == "" {
		return tags
	}
	for _, r := range tagRules {
		if r.re.MatchString(text) {
			tags = append(tags, r.tag)
		}
	}
	return tags
}
