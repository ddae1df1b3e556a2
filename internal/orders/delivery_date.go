package orders

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
	"github.com/angelmondragon/orderportal-backend/pkg/types"
)

var cutoffPattern = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// Cutoff is the daily "HH:MM" boundary after which orders need an extra day of lead time.
type Cutoff struct {
	Hour   int
	Minute int
}

// ParseCutoff validates a 24h "HH:MM" string.
func ParseCutoff(raw string) (Cutoff, error) {
	if !cutoffPattern.MatchString(raw) {
		return Cutoff{}, pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("invalid order time limit %q", raw))
	}
	hour, _ := strconv.Atoi(raw[:2])
	minute, _ := strconv.Atoi(raw[3:])
	return Cutoff{Hour: hour, Minute: minute}, nil
}

func (c Cutoff) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the cutoff instant on the civil date of day, in day's location.
func (c Cutoff) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

// Passed reports whether now's time-of-day is at or after the cutoff.
func (c Cutoff) Passed(now time.Time) bool {
	return !now.Before(c.On(now))
}

// DeliveryDateFor is the earliest delivery date for an order placed at now.
// Before the cutoff that is the next calendar day, at or after it the day after.
func (c Cutoff) DeliveryDateFor(now time.Time) types.Date {
	lead := 1
	if c.Passed(now) {
		lead = 2
	}
	return types.NewDate(now).AddDays(lead)
}

// LastPassed returns the most recent cutoff instant that is not after now.
func (c Cutoff) LastPassed(now time.Time) time.Time {
	today := c.On(now)
	if !now.Before(today) {
		return today
	}
	return c.On(now.AddDate(0, 0, -1))
}

// CalculateDeliveryDate parses cutoff and applies it to now. now must already be
// expressed in the business timezone.
func CalculateDeliveryDate(now time.Time, cutoff string) (types.Date, error) {
	c, err := ParseCutoff(cutoff)
	if err != nil {
		return types.Date{}, err
	}
	return c.DeliveryDateFor(now), nil
}

// MinimumDeliveryDate is the earliest date a caller may request at now.
func MinimumDeliveryDate(now time.Time, cutoff string) (types.Date, error) {
	return CalculateDeliveryDate(now, cutoff)
}

// IsDeliveryDateAcceptable compares calendar dates only. The minimum is returned
// so callers can echo it back.
func IsDeliveryDateAcceptable(requested types.Date, now time.Time, cutoff string) (bool, types.Date, error) {
	minDate, err := MinimumDeliveryDate(now, cutoff)
	if err != nil {
		return false, types.Date{}, err
	}
	return !requested.Before(minDate), minDate, nil
}
