package billingcycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		closingDay int
		target     time.Time
		wantMonth  time.Month
		wantYear   int
	}{
		{"on closing day stays in month", 15, date(2024, time.March, 15), time.March, 2024},
		{"before closing day stays in month", 15, date(2024, time.March, 3), time.March, 2024},
		{"after closing day rolls forward", 15, date(2024, time.March, 16), time.April, 2024},
		{"december rolls into next year", 10, date(2024, time.December, 20), time.January, 2025},
		{"december before closing stays", 28, date(2024, time.December, 20), time.December, 2024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.closingDay, tt.target)
			assert.Equal(t, tt.wantMonth, got.Month)
			assert.Equal(t, tt.wantYear, got.Year)
		})
	}
}

func TestComputeDates_DueNextMonth(t *testing.T) {
	// due_day < closing_day: closes late in the month, due early next month.
	closing, due := ComputeDates(15, 10, Period{Month: time.March, Year: 2024})
	assert.Equal(t, date(2024, time.March, 15), closing)
	assert.Equal(t, date(2024, time.April, 10), due)
}

func TestComputeDates_DueSameMonth(t *testing.T) {
	closing, due := ComputeDates(5, 20, Period{Month: time.March, Year: 2024})
	assert.Equal(t, date(2024, time.March, 5), closing)
	assert.Equal(t, date(2024, time.March, 20), due)
}

func TestComputeDates_EqualDaysStaysSameMonth(t *testing.T) {
	closing, due := ComputeDates(12, 12, Period{Month: time.June, Year: 2024})
	assert.Equal(t, date(2024, time.June, 12), closing)
	assert.Equal(t, date(2024, time.June, 12), due)
}

func TestComputeDates_YearWrap(t *testing.T) {
	closing, due := ComputeDates(28, 5, Period{Month: time.December, Year: 2024})
	assert.Equal(t, date(2024, time.December, 28), closing)
	assert.Equal(t, date(2025, time.January, 5), due)
}

func TestComputeDates_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name        string
		month       time.Month
		year        int
		wantClosing time.Time
	}{
		{"february leap year", time.February, 2024, date(2024, time.February, 29)},
		{"february common year", time.February, 2023, date(2023, time.February, 28)},
		{"thirty day month", time.April, 2024, date(2024, time.April, 30)},
		{"thirty one day month", time.January, 2024, date(2024, time.January, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closing, due := ComputeDates(31, 31, Period{Month: tt.month, Year: tt.year})
			assert.Equal(t, tt.wantClosing, closing)
			assert.Equal(t, tt.wantClosing, due)
		})
	}
}

// Scenario from the card setup flow: closing day 15, due day 10, purchase
// on the 20th. The active invoice is next month, closing on its 15th and
// due on the 10th of the month after that.
func TestResolveAndComputeDates_Scenario(t *testing.T) {
	period := Resolve(15, date(2024, time.May, 20))
	assert.Equal(t, Period{Month: time.June, Year: 2024}, period)

	closing, due := ComputeDates(15, 10, period)
	assert.Equal(t, date(2024, time.June, 15), closing)
	assert.Equal(t, date(2024, time.July, 10), due)
}

func TestAdvance(t *testing.T) {
	m, y := Advance(time.November, 2024)
	assert.Equal(t, time.December, m)
	assert.Equal(t, 2024, y)

	m, y = Advance(time.December, 2024)
	assert.Equal(t, time.January, m)
	assert.Equal(t, 2025, y)
}

func TestClampDay(t *testing.T) {
	assert.Equal(t, 29, ClampDay(31, time.February, 2024))
	assert.Equal(t, 28, ClampDay(30, time.February, 2023))
	assert.Equal(t, 15, ClampDay(15, time.February, 2023))
}

func TestValidDay(t *testing.T) {
	assert.False(t, ValidDay(0))
	assert.True(t, ValidDay(1))
	assert.True(t, ValidDay(31))
	assert.False(t, ValidDay(32))
}
