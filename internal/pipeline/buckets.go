package pipeline

import (
	"time"

	"github.com/theirongolddev/carledger/internal/model"
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"

	// Windows up to this many days get daily trend buckets.
	dailyTrendMaxDays = 31
)

type point struct {
	at time.Time
	v  float64
}

// series buckets points by month (or day) in loc and returns them in
// chronological order, filling empty buckets between the first and last
// point with zeros so charts show gaps.
func series(points []point, daily bool, loc *time.Location) []model.PeriodCost {
	if len(points) == 0 {
		return nil
	}

	layout := monthLayout
	if daily {
		layout = dayLayout
	}

	sums := make(ledger)
	first, last := points[0].at, points[0].at
	for _, p := range points {
		sums.add(p.at.In(loc).Format(layout), p.v)
		if p.at.Before(first) {
			first = p.at
		}
		if p.at.After(last) {
			last = p.at
		}
	}

	start := bucketStart(first.In(loc), daily)
	end := bucketStart(last.In(loc), daily)

	var out []model.PeriodCost
	for b := start; !b.After(end); b = nextBucket(b, daily) {
		key := b.Format(layout)
		pc := model.PeriodCost{Start: b, Key: key}
		if t, ok := sums[key]; ok {
			pc.Cost = t.float()
		}
		out = append(out, pc)
	}
	return out
}

func bucketStart(t time.Time, daily bool) time.Time {
	if daily {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func nextBucket(t time.Time, daily bool) time.Time {
	if daily {
		return t.AddDate(0, 0, 1)
	}
	return t.AddDate(0, 1, 0)
}

// costliest returns the bucket with the highest cost, earliest on ties, or
// nil when every bucket is zero.
func costliest(buckets []model.PeriodCost) *model.PeriodCost {
	var best *model.PeriodCost
	for i := range buckets {
		if buckets[i].Cost <= 0 {
			continue
		}
		if best == nil || buckets[i].Cost > best.Cost {
			b := buckets[i]
			best = &b
		}
	}
	return best
}
