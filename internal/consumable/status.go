// Package consumable evaluates the replacement status of consumable items.
package consumable

import (
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/carledger/internal/model"
)

// Remaining-usage floors below which an item is critical regardless of ratio.
const (
	CriticalRemainingKm   = 500
	CriticalRemainingDays = 14
)

const (
	warningRatio  = 0.5
	criticalRatio = 1.0
)

// Evaluate computes the status of item at the given odometer reading and time.
// Mileage and calendar intervals are judged independently and the worse one wins.
func Evaluate(item model.ConsumableItem, currentMileage int, now time.Time) model.StatusInfo {
	if !item.Active {
		return model.StatusInfo{Status: model.StatusNormal}
	}

	var info model.StatusInfo
	progress := math.Inf(-1)

	if item.IntervalMileage != nil && *item.IntervalMileage > 0 {
		interval := *item.IntervalMileage
		elapsed := currentMileage - item.InstallationMileage
		ratio := float64(elapsed) / float64(interval)
		remaining := interval - elapsed

		info.RemainingMileage = &remaining
		info.Status = info.Status.Worse(classify(ratio, remaining, CriticalRemainingKm))
		progress = math.Max(progress, ratio)
	}

	if item.IntervalDays != nil && *item.IntervalDays > 0 {
		interval := *item.IntervalDays
		elapsed := daysBetween(item.InstallationDate, now)
		ratio := float64(elapsed) / float64(interval)
		remaining := interval - elapsed

		info.RemainingDays = &remaining
		info.Status = info.Status.Worse(classify(ratio, remaining, CriticalRemainingDays))
		progress = math.Max(progress, ratio)
	}

	info.Progress = clamp01(progress)
	return info
}

// EvaluateAll evaluates every item, most severe first.
func EvaluateAll(items []model.ConsumableItem, currentMileage int, now time.Time) []model.ConsumableStatus {
	result := make([]model.ConsumableStatus, 0, len(items))
	for _, it := range items {
		result = append(result, model.ConsumableStatus{
			Item: it,
			Info: Evaluate(it, currentMileage, now),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Info.Status != result[j].Info.Status {
			return result[i].Info.Status > result[j].Info.Status
		}
		return result[i].Info.Progress > result[j].Info.Progress
	})
	return result
}

func classify(ratio float64, remaining, floor int) model.Status {
	switch {
	case ratio >= criticalRatio || remaining <= floor:
		return model.StatusCritical
	case ratio >= warningRatio:
		return model.StatusWarning
	default:
		return model.StatusNormal
	}
}

// daysBetween returns whole days elapsed from since to now, rounded toward
// negative infinity so a future installation yields a negative count.
func daysBetween(since, now time.Time) int {
	return int(math.Floor(now.Sub(since).Hours() / 24))
}

func clamp01(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
