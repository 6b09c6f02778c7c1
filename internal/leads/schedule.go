package leads

import (
	"time"

	"github.com/xaenox/docdesk/internal/models"
)

var callHours = map[models.CallTime]int{
	models.CallMorning:   9,
	models.CallAfternoon: 14,
	models.CallEvening:   18,
	models.CallAnytime:   10,
}

// EstimateCallTime returns the slot for pref on the calendar day after now,
// in loc. Unknown preferences get the anytime slot.
func EstimateCallTime(now time.Time, pref models.CallTime, loc *time.Location) time.Time {
	hour, ok := callHours[pref]
	if !ok {
		hour = callHours[models.CallAnytime]
	}

	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d+1, hour, 0, 0, 0, loc)
}

// PriorityFor derives a lead's priority from its stated interest.
func PriorityFor(interest models.Interest) models.Priority {
	switch interest {
	case models.InterestPricing, models.InterestDemo:
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}
