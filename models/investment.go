package models

// ContributionEntry is one month's investment contribution. InterestEarned
// and Total are derived: they are overwritten on every history recompute and
// never accepted from user input.
type ContributionEntry struct {
	ID             string  `json:"id"`
	YearMonth      string  `json:"yearMonth"`
	Contribution   float64 `json:"contribution"`
	InterestEarned float64 `json:"interestEarned"`
	Total          float64 `json:"total"`
}

// InvestmentProjection is the goal view computed from a contribution history.
type InvestmentProjection struct {
	CurrentTotal         float64 `json:"currentTotal"`
	Progress             float64 `json:"progress"`
	RequiredContribution float64 `json:"requiredContribution"`
}
