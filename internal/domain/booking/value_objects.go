package booking

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPeriod = errors.New("start time must be before end time")

// Period is a half-open interval [start, end).
type Period struct {
	start time.Time
	end   time.Time
}

func NewPeriod(start, end time.Time) (Period, error) {
	if !start.Before(end) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{start: start, end: end}, nil
}

func (p Period) Start() time.Time {
	return p.start
}

func (p Period) End() time.Time {
	return p.end
}

func (p Period) Duration() time.Duration {
	return p.end.Sub(p.start)
}

func (p Period) Hours() float64 {
	return p.Duration().Hours()
}

// Overlaps uses half-open intersection: other.start < end AND other.end > start.
func (p Period) Overlaps(other Period) bool {
	return other.start.Before(p.end) && other.end.After(p.start)
}

func (p Period) Shift(d time.Duration) Period {
	return Period{start: p.start.Add(d), end: p.end.Add(d)}
}

func (p Period) String() string {
	return fmt.Sprintf("[%s,%s)", p.start.Format(time.RFC3339), p.end.Format(time.RFC3339))
}

type Money struct {
	cents int64
}

func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Dollars() float64 {
	return float64(m.cents) / 100.0
}
