package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	edt := time.FixedZone("EDT", -4*3600)

	got, err := ParseTime("2025-06-02T10:30", edt)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 2, 14, 30, 0, 0, time.UTC), got.UTC())

	got, err = ParseTime("2025-06-02T10:30:00Z", edt)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 2, 10, 30, 0, 0, time.UTC), got.UTC())

	got, err = ParseTime("2025-06-02", edt)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Hour())

	_, err = ParseTime("next tuesday", edt)
	assert.Error(t, err)
}

func TestParseRange(t *testing.T) {
	start, end, err := ParseRange("2025-06-02T10:00", "", 45*time.Minute, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, end.Sub(start))

	start, end, err = ParseRange("2025-06-02T10:00", "2025-06-02T11:30", 0, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, end.Sub(start))

	_, _, err = ParseRange("", "", time.Hour, time.UTC)
	assert.Error(t, err)
	_, _, err = ParseRange("2025-06-02T10:00", "", 0, time.UTC)
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	_, err := ParseID("shop ID", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid shop ID")

	id, err := ParseOptionalID("customer ID", "")
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", id.String())
}

func TestRequireApp(t *testing.T) {
	prev := GetApp()
	t.Cleanup(func() { SetApp(prev) })

	SetApp(nil)
	_, err := RequireApp()
	assert.ErrorIs(t, err, ErrNotInitialized)

	SetApp(&App{})
	a, err := RequireApp()
	require.NoError(t, err)
	assert.NotNil(t, a)
}
