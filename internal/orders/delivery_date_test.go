package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/orderportal-backend/pkg/errors"
	"github.com/angelmondragon/orderportal-backend/pkg/types"
)

var cst = time.FixedZone("CST", -6*60*60)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, cst)
}

func TestParseCutoffRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "18", "1800", "18:0", "8:00", "24:00", "18:60", "18:00:00", " 18:00", "ab:cd", "-1:00"} {
		_, err := ParseCutoff(raw)
		require.Error(t, err, raw)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration), raw)

		_, err = CalculateDeliveryDate(at(2024, time.January, 1, 10, 0), raw)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration), raw)
	}
}

func TestParseCutoffAcceptsBounds(t *testing.T) {
	for raw, want := range map[string]Cutoff{
		"00:00": {0, 0},
		"09:05": {9, 5},
		"18:00": {18, 0},
		"23:59": {23, 59},
	} {
		got, err := ParseCutoff(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
		assert.Equal(t, raw, got.String())
	}
}

func TestCalculateDeliveryDateBoundary(t *testing.T) {
	before, err := CalculateDeliveryDate(at(2024, time.January, 1, 17, 59), "18:00")
	require.NoError(t, err)
	after, err := CalculateDeliveryDate(at(2024, time.January, 1, 18, 1), "18:00")
	require.NoError(t, err)

	assert.Equal(t, types.DateOf(2024, time.January, 2), before)
	assert.Equal(t, types.DateOf(2024, time.January, 3), after)
	assert.Equal(t, before.AddDays(1), after)

	exact, err := CalculateDeliveryDate(at(2024, time.January, 1, 18, 0), "18:00")
	require.NoError(t, err)
	assert.Equal(t, after, exact, "cutoff instant itself counts as passed")
}

func TestCalculateDeliveryDateScenarios(t *testing.T) {
	morning, err := CalculateDeliveryDate(at(2024, time.March, 4, 10, 0), "18:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", morning.String())

	evening, err := CalculateDeliveryDate(at(2024, time.March, 4, 19, 0), "18:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-06", evening.String())

	yearEnd, err := CalculateDeliveryDate(at(2024, time.December, 31, 20, 0), "18:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", yearEnd.String())
}

func TestCalculateDeliveryDateIsPure(t *testing.T) {
	now := at(2024, time.March, 4, 12, 30)
	first, err := CalculateDeliveryDate(now, "12:30")
	require.NoError(t, err)
	second, err := CalculateDeliveryDate(now, "12:30")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculateDeliveryDateUsesNowLocation(t *testing.T) {
	// 01:00 UTC on the 5th is 19:00 CST on the 4th.
	utc := time.Date(2024, time.March, 5, 1, 0, 0, 0, time.UTC)
	got, err := CalculateDeliveryDate(utc.In(cst), "18:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-06", got.String())
}

func TestIsDeliveryDateAcceptable(t *testing.T) {
	now := at(2024, time.March, 4, 10, 0)

	ok, minDate, err := IsDeliveryDateAcceptable(types.DateOf(2024, time.March, 4), now, "18:00")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "2024-03-05", minDate.String())

	ok, _, err = IsDeliveryDateAcceptable(types.DateOf(2024, time.March, 5), now, "18:00")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = IsDeliveryDateAcceptable(types.DateOf(2024, time.April, 1), now, "18:00")
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = IsDeliveryDateAcceptable(types.DateOf(2024, time.April, 1), now, "bad")
	assert.Error(t, err)
}

func TestCutoffLastPassed(t *testing.T) {
	c := Cutoff{Hour: 18}
	assert.Equal(t, at(2024, time.March, 4, 18, 0), c.LastPassed(at(2024, time.March, 4, 18, 0)))
	assert.Equal(t, at(2024, time.March, 4, 18, 0), c.LastPassed(at(2024, time.March, 4, 23, 59)))
	assert.Equal(t, at(2024, time.March, 3, 18, 0), c.LastPassed(at(2024, time.March, 4, 17, 59)))
}
