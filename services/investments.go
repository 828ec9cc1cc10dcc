package services

import (
	"math"
	"sort"
	"time"

	"financeiro/backend/models"
)

// Investment plan constants: R$ 1 million in 72 months at 1% a month.
const (
	MonthlyRate   = 0.01
	Goal          = 1000000.0
	HorizonMonths = 72
)

// RecalculateHistory sorts the contribution history by month and rebuilds
// every derived field from scratch. Interest compounds over the full prefix,
// so any insert, edit or delete requires a full recompute; incremental
// updates are not supported. The input slice is not modified.
func RecalculateHistory(history []models.ContributionEntry) []models.ContributionEntry {
	recalculated := make([]models.ContributionEntry, len(history))
	copy(recalculated, history)

	// YYYY-MM keys sort correctly as strings.
	sort.SliceStable(recalculated, func(i, j int) bool {
		return recalculated[i].YearMonth < recalculated[j].YearMonth
	})

	runningTotal := 0.0
	for i := range recalculated {
		balanceBeforeInterest := runningTotal + recalculated[i].Contribution
		interestEarned := balanceBeforeInterest * MonthlyRate
		runningTotal = balanceBeforeInterest + interestEarned
		recalculated[i].InterestEarned = interestEarned
		recalculated[i].Total = runningTotal
	}

	return recalculated
}

// CurrentTotal returns the balance after the last entry of a recalculated
// history, or 0 for an empty history.
func CurrentTotal(history []models.ContributionEntry) float64 {
	if len(history) == 0 {
		return 0
	}
	return history[len(history)-1].Total
}

// InvestmentProgress returns how far the current total is toward the goal,
// as a percentage.
func InvestmentProgress(currentTotal float64) float64 {
	return currentTotal / Goal * 100
}

// RequiredMonthlyContribution estimates the monthly contribution needed to
// reach the goal within the plan horizon. With no history it is the plain
// annuity payment over the full horizon. Otherwise the months already
// elapsed since the first contribution shrink the window: the current total
// is compounded forward over the remaining months and the annuity covers
// only what is still missing. Returns 0 when the horizon has passed or the
// goal is already covered.
func RequiredMonthlyContribution(history []models.ContributionEntry, currentTotal float64, now time.Time) float64 {
	if len(history) == 0 {
		return annuityPayment(Goal, MonthlyRate, HorizonMonths)
	}

	first, err := time.Parse("2006-01", history[0].YearMonth)
	if err != nil {
		return 0
	}

	monthsElapsed := (now.Year()-first.Year())*12 + int(now.Month()) - int(first.Month())
	monthsRemaining := HorizonMonths - monthsElapsed
	if monthsRemaining <= 0 {
		return 0
	}

	futureValue := currentTotal * math.Pow(1+MonthlyRate, float64(monthsRemaining))
	remainingGoal := Goal - futureValue
	if remainingGoal <= 0 {
		return 0
	}

	return annuityPayment(remainingGoal, MonthlyRate, monthsRemaining)
}

// annuityPayment returns the level payment that accumulates to goal over n
// months at the given monthly rate.
func annuityPayment(goal, rate float64, n int) float64 {
	if goal <= 0 || n <= 0 {
		return 0
	}
	if rate == 0 {
		return goal / float64(n)
	}
	return goal * rate / (math.Pow(1+rate, float64(n)) - 1)
}
