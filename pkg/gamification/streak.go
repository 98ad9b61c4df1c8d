package gamification

import "time"

const dateLayout = "2006-01-02"

// NextStreak computes the streak after a checklist completed on today.
// last is the previous completion day (YYYY-MM-DD, empty if none).
func NextStreak(last string, today time.Time, current int) int {
	if last == "" {
		return 1
	}

	lastDay, err := time.Parse(dateLayout, last)
	if err != nil {
		return 1
	}

	todayDay, _ := time.Parse(dateLayout, today.Format(dateLayout))
	switch days := int(todayDay.Sub(lastDay).Hours() / 24); {
	case days <= 0:
		if current < 1 {
			return 1
		}
		return current
	case days == 1:
		return current + 1
	default:
		return 1
	}
}

// Day formats t as the streak day key.
func Day(t time.Time) string {
	return t.Format(dateLayout)
}

// ActiveStreak is the streak as it stands on today: it survives until the
// end of the day after the last completion.
func ActiveStreak(last string, today time.Time, current int) int {
	if last == "" {
		return 0
	}
	lastDay, err := time.Parse(dateLayout, last)
	if err != nil {
		return 0
	}
	todayDay, _ := time.Parse(dateLayout, today.Format(dateLayout))
	if todayDay.Sub(lastDay) > 24*time.Hour {
		return 0
	}
	return current
}
