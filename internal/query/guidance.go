package query

import "strings"

// PremiumURL documents the upstream plan limits.
const PremiumURL = "https://www.alphavantage.co/premium/"

// Guidance returns supplementary help text for a failure, or "" when none applies.
func Guidance(e ErrorInfo) string {
	switch {
	case e.Category == CategoryMissingInput:
		return "Choose a start date and an end date, then fetch again."
	case e.Category == CategoryNonJSONResponse:
		return "The server encountered an unexpected error. Please try again later or contact support if the issue persists."
	case strings.Contains(e.Message, "API limit reached"):
		return "Consider upgrading your API plan or waiting before making more requests. " +
			"You can find more information about API limits at " + PremiumURL
	case strings.Contains(e.Message, "No valid data available"):
		return "The selected date range might be too recent or in the future. Please try selecting an earlier date range."
	}
	return ""
}
