package isodate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-oagis/pkg/errlist"
)

func TestParse_WithOffset(t *testing.T) {
	var errs errlist.List

	ts := Parse("2024-01-01T10:00:00.0000Z+0500", &errs)
	require.NotNil(t, ts)
	assert.True(t, errs.Empty())

	_, offset := ts.Zone()
	assert.Equal(t, 5*60*60, offset)
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 10, ts.Hour())
}

func TestParse_NoOffsetFallback(t *testing.T) {
	var errs errlist.List

	ts := Parse("2024-01-01T10:00:00.0000Z", &errs)
	require.NotNil(t, ts)
	assert.True(t, errs.Empty())
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), ts.UTC())
}

func TestParse_Garbage(t *testing.T) {
	var errs errlist.List

	ts := Parse("garbage", &errs)
	assert.Nil(t, ts)
	require.Len(t, errs, 1)
	assert.Equal(t, errlist.ReasonParse, errs[0].ReasonCode)
	assert.Contains(t, errs[0].Description, "garbage")
}

func TestParse_Empty(t *testing.T) {
	var errs errlist.List

	ts := Parse("", &errs)
	assert.Nil(t, ts)
	assert.True(t, errs.Empty())
}

func TestParse_NilErrorList(t *testing.T) {
	assert.NotPanics(t, func() {
		Parse("garbage", nil)
	})
}

func TestFormat(t *testing.T) {
	loc := time.FixedZone("", 5*60*60)
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, loc)

	assert.Equal(t, "2024-01-01T10:00:00.0000Z+0500", Format(ts))
}

func TestFormat_UTC(t *testing.T) {
	ts := time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, "2024-06-15T23:59:59.0000Z+0000", Format(ts))
}

func TestFormatNoOffset(t *testing.T) {
	loc := time.FixedZone("", 5*60*60)
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, loc)

	assert.Equal(t, "2024-01-01T05:00:00.0000Z", FormatNoOffset(ts))
}

func TestFormatParseRoundTrip(t *testing.T) {
	var errs errlist.List
	ts := time.Date(2024, 3, 10, 4, 30, 0, 0, time.FixedZone("", -8*60*60))

	parsed := Parse(Format(ts), &errs)
	require.NotNil(t, parsed)
	assert.True(t, ts.Equal(*parsed))
}
