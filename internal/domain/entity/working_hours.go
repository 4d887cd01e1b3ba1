package entity

import "time"

// DayHours describes a working window as offsets from midnight
type DayHours struct {
	Open  time.Duration
	Close time.Duration
}

// WorkingHoursPolicy drives deterministic slot generation for a doctor's
// calendar. Days absent from Week are closed.
type WorkingHoursPolicy struct {
	SlotDuration time.Duration
	BreakStart   time.Duration
	BreakEnd     time.Duration
	Week         map[time.Weekday]DayHours
}

// DefaultWorkingHours is the clinic-wide policy: Mon-Fri 09:00-17:00,
// Sat 09:00-14:00, closed Sunday, 30-minute slots, lunch 12:30-13:30.
func DefaultWorkingHours() WorkingHoursPolicy {
	weekday := DayHours{Open: 9 * time.Hour, Close: 17 * time.Hour}
	return WorkingHoursPolicy{
		SlotDuration: 30 * time.Minute,
		BreakStart:   12*time.Hour + 30*time.Minute,
		BreakEnd:     13*time.Hour + 30*time.Minute,
		Week: map[time.Weekday]DayHours{
			time.Monday:    weekday,
			time.Tuesday:   weekday,
			time.Wednesday: weekday,
			time.Thursday:  weekday,
			time.Friday:    weekday,
			time.Saturday:  {Open: 9 * time.Hour, Close: 14 * time.Hour},
		},
	}
}

// SlotStarts returns the start times of every slot on the given day, in order.
// Slots whose start falls inside the break window are skipped. The day's
// clock time is ignored; only its date and location matter.
func (p WorkingHoursPolicy) SlotStarts(day time.Time) []time.Time {
	hours, open := p.Week[day.Weekday()]
	if !open {
		return nil
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	var starts []time.Time
	for offset := hours.Open; offset+p.SlotDuration <= hours.Close; offset += p.SlotDuration {
		if offset >= p.BreakStart && offset < p.BreakEnd {
			continue
		}
		starts = append(starts, midnight.Add(offset))
	}
	return starts
}
