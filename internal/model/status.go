package model

// Status is the health of a consumable. Higher values are more severe.
type Status int

// Status values in severity order.
const (
	StatusNormal Status = iota
	StatusWarning
	StatusCritical
)

func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Worse returns the more severe of s and o.
func (s Status) Worse(o Status) Status {
	if o > s {
		return o
	}
	return s
}

// StatusInfo is the evaluated state of one consumable.
type StatusInfo struct {
	Status           Status
	Progress         float64 // 0..1, for gauges
	RemainingMileage *int    // negative when overdue
	RemainingDays    *int    // negative when overdue
}

// Overdue reports whether either remaining value has run out.
func (s StatusInfo) Overdue() bool {
	if s.RemainingMileage != nil && *s.RemainingMileage <= 0 {
		return true
	}
	return s.RemainingDays != nil && *s.RemainingDays <= 0
}

// ConsumableStatus pairs an item with its evaluated status.
type ConsumableStatus struct {
	Item ConsumableItem
	Info StatusInfo
}
