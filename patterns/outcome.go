package patterns

import "strings"

// Outcome is the realized result of a reviewed forecast or trade.
type Outcome string

const (
	OutcomeNone         Outcome = ""
	OutcomeLongSuccess  Outcome = "long_success"
	OutcomeLongFailure  Outcome = "long_failure"
	OutcomeShortSuccess Outcome = "short_success"
	OutcomeShortFailure Outcome = "short_failure"
	OutcomeNeutral      Outcome = "neutral"
	OutcomeUnknown      Outcome = "unknown"
)

// IsSuccess reports a successful long or short outcome.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeLongSuccess || o == OutcomeShortSuccess
}

// IsFailure reports a failed long or short outcome.
func (o Outcome) IsFailure() bool {
	return o == OutcomeLongFailure || o == OutcomeShortFailure
}

// ExtractOutcome resolves a review into an Outcome. An explicit outcome wins;
// otherwise the review text is scanned for success/failure and direction words.
func ExtractOutcome(reviewText, explicit string) Outcome {
	if explicit != "" {
		switch o := Outcome(explicit); o {
		case OutcomeLongSuccess, OutcomeLongFailure, OutcomeShortSuccess, OutcomeShortFailure, OutcomeNeutral:
			return o
		default:
			return OutcomeUnknown
		}
	}

	text := strings.ToLower(reviewText)
	isLong := strings.Contains(text, "ロング") || strings.Contains(text, "long")
	isShort := strings.Contains(text, "ショート") || strings.Contains(text, "short")

	switch {
	case strings.Contains(text, "成功") || strings.Contains(text, "success"):
		if isLong {
			return OutcomeLongSuccess
		}
		if isShort {
			return OutcomeShortSuccess
		}
	case strings.Contains(text, "失敗") || strings.Contains(text, "fail"):
		if isLong {
			return OutcomeLongFailure
		}
		if isShort {
			return OutcomeShortFailure
		}
	}
	return OutcomeUnknown
}
