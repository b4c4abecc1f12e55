package temporal

import "time"

// InferDate places a bare hour:minute on a calendar day. If that time has
// already passed on now's date, tomorrow is used; otherwise today.
func InferDate(hour, minute int, now time.Time) time.Time {
	day := midnight(now)
	if hour*60+minute < now.Hour()*60+now.Minute() {
		day = day.AddDate(0, 0, 1)
	}
	return At(day, hour, minute)
}

// RepairTimeOfDay re-reads s as a bare time-of-day found anywhere in the
// string and infers its date from now. It is used to salvage start times
// whose date part failed validation.
func RepairTimeOfDay(s string, now time.Time) (time.Time, bool) {
	c, ok := FindClock(s)
	if !ok {
		return time.Time{}, false
	}
	return InferDate(c.Hour, c.Minute, now), true
}

// OnDate moves t's time-of-day onto date's calendar day.
func OnDate(t, date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, date.Location())
}
