package patterns

import "sort"

// ReviewMetadata is the structured metadata extracted from a forecast review.
type ReviewMetadata struct {
	Pattern struct {
		Result        string `json:"result"`
		KamukamuPoint string `json:"kamukamu_point"`
	} `json:"pattern"`
	Statistics struct {
		TotalScore float64 `json:"total_score"`
	} `json:"statistics"`
	Lessons struct {
		SuccessFactors []string `json:"success_factors"`
		FailureFactors []string `json:"failure_factors"`
		CautionZones   []string `json:"caution_zones"`
	} `json:"lessons"`
	KeyTakeaway string `json:"key_takeaway,omitempty"`
}

// MetadataSummary aggregates recent review metadata.
type MetadataSummary struct {
	TotalReviews         int            `json:"total_reviews"`
	SuccessRate          float64        `json:"success_rate"` // percent
	CommonSuccessFactors []string       `json:"common_success_factors"`
	CommonFailureFactors []string       `json:"common_failure_factors"`
	CautionZones         []string       `json:"caution_zones"`
	PatternUsage         map[string]int `json:"pattern_usage"`
	AverageScore         float64        `json:"average_score"`
	KeyTakeaways         []string       `json:"key_takeaways,omitempty"`
}

const maxSummaryFactors = 5

// SummarizeMetadata folds review metadata into a MetadataSummary.
// An empty input yields the zero summary.
func SummarizeMetadata(items []ReviewMetadata) MetadataSummary {
	if len(items) == 0 {
		return MetadataSummary{}
	}

	var successes int
	var scoreTotal float64
	var successFactors, failureFactors, takeaways []string
	zones := make(map[string]struct{})
	usage := make(map[string]int)

	for _, m := range items {
		if m.Pattern.Result == "success" {
			successes++
		}
		scoreTotal += m.Statistics.TotalScore
		successFactors = append(successFactors, m.Lessons.SuccessFactors...)
		failureFactors = append(failureFactors, m.Lessons.FailureFactors...)
		takeaways = append(takeaways, m.KeyTakeaway)
		for _, z := range m.Lessons.CautionZones {
			zones[z] = struct{}{}
		}
		point := m.Pattern.KamukamuPoint
		if point == "" {
			point = "unknown"
		}
		usage[point]++
	}

	total := len(items)
	return MetadataSummary{
		TotalReviews:         total,
		SuccessRate:          float64(successes) / float64(total) * 100,
		CommonSuccessFactors: firstUnique(successFactors, maxSummaryFactors),
		CommonFailureFactors: firstUnique(failureFactors, maxSummaryFactors),
		CautionZones:         sortedKeys(zones),
		PatternUsage:         usage,
		AverageScore:         scoreTotal / float64(total),
		KeyTakeaways:         firstUnique(takeaways, maxSummaryFactors),
	}
}

// TopPatternUsage returns up to n pattern names by descending use count.
func (s MetadataSummary) TopPatternUsage(n int) []string {
	names := sortedKeys(s.PatternUsage)
	sort.SliceStable(names, func(i, j int) bool {
		return s.PatternUsage[names[i]] > s.PatternUsage[names[j]]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func firstUnique(items []string, n int) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}
