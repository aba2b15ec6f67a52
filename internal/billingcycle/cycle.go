// Package billingcycle resolves which monthly invoice a purchase belongs
// to given a card's closing and due days. All functions are pure calendar
// arithmetic over (closing day, due day, date).
package billingcycle

import "time"

// Period identifies one invoice month for a card.
type Period struct {
	Month time.Month
	Year  int
}

// Resolve returns the period of the invoice that is open for purchases on
// target. Purchases on or before the closing day land on the target's own
// month; later purchases roll forward to the next month, wrapping the year
// at December.
func Resolve(closingDay int, target time.Time) Period {
	month, year := target.Month(), target.Year()
	if target.Day() > closingDay {
		month, year = Advance(month, year)
	}
	return Period{Month: month, Year: year}
}

// ComputeDates returns the closing and due dates for a period.
//
// The closing date is the card's closing day inside the reference month,
// clamped to the month's last day. When the due day is earlier than the
// closing day the invoice is due in the following month; when due day and
// closing day are equal the due date stays in the reference month.
func ComputeDates(closingDay, dueDay int, period Period) (closing, due time.Time) {
	closing = DateClamped(period.Year, period.Month, closingDay)

	dueMonth, dueYear := period.Month, period.Year
	if dueDay < closingDay {
		dueMonth, dueYear = Advance(dueMonth, dueYear)
	}
	due = DateClamped(dueYear, dueMonth, dueDay)
	return closing, due
}

// Advance moves one month forward, wrapping the year at December.
func Advance(month time.Month, year int) (time.Month, int) {
	if month == time.December {
		return time.January, year + 1
	}
	return month + 1, year
}

// Advance returns the following period.
func (p Period) Advance() Period {
	month, year := Advance(p.Month, p.Year)
	return Period{Month: month, Year: year}
}

// ClampDay limits day to the number of days in the given month.
func ClampDay(day int, month time.Month, year int) int {
	last := DaysIn(month, year)
	if day > last {
		return last
	}
	return day
}

// DaysIn returns the number of days in a month.
func DaysIn(month time.Month, year int) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidDay reports whether day is usable as a closing or due day.
func ValidDay(day int) bool {
	return day >= 1 && day <= 31
}

// DateClamped builds a UTC midnight date, clamping day to the month's
// length.
func DateClamped(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, ClampDay(day, month, year), 0, 0, 0, 0, time.UTC)
}
