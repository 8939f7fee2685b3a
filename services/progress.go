package services

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ComputeProgress returns min(round(current/target*100), 100). A non-positive
// target leaves the previous progress untouched.
func ComputeProgress(current, target float64, previous int) int {
	if target <= 0 {
		return previous
	}

	pct := decimal.NewFromFloat(current).
		Div(decimal.NewFromFloat(target)).
		Mul(hundred).
		Round(0).
		IntPart()

	switch {
	case pct > 100:
		return 100
	case pct < 0:
		return 0
	}
	return int(pct)
}

// LessonProgress returns the share of completed lessons as 0-100
func LessonProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return ComputeProgress(float64(completed), float64(total), 0)
}
