package domain

import "time"

// DaysInWeek is the fixed scheduling horizon.
const DaysInWeek = 7

// ScheduleAssignment places one ticket on one worker's calendar for one day.
type ScheduleAssignment struct {
	ID             string
	WorkerID       string
	TicketID       string
	ScheduledDate  time.Time
	AssignedAt     time.Time
	AssignedBy     *string
	IsAutoAssigned bool
	Priority       *TicketPriority
}

// Key identifies the assignment by its unique triple.
func (a ScheduleAssignment) Key() string {
	return AssignmentKey(a.WorkerID, a.TicketID, a.ScheduledDate)
}

// AssignmentKey builds the (worker, ticket, date) uniqueness key.
func AssignmentKey(workerID, ticketID string, date time.Time) string {
	return workerID + "|" + ticketID + "|" + DateKey(date)
}

// StartOfDay strips the time-of-day, keeping the location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateKey formats the calendar date of t.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekDays returns the seven midnights starting at weekStart.
func WeekDays(weekStart time.Time) []time.Time {
	start := StartOfDay(weekStart)
	days := make([]time.Time, DaysInWeek)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// WeekEnd returns the last day of the week window starting at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return StartOfDay(weekStart).AddDate(0, 0, DaysInWeek-1)
}

// WeekStartOf returns the Monday midnight of t's week.
func WeekStartOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}
