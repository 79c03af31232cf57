package isodate

import (
	"time"

	"github.com/sirosfoundation/go-oagis/pkg/errlist"
)

// Layouts for the OAGIS DATETIMEISO field. The 'Z' is a literal separator,
// not the UTC designator: the offset follows it in the full layout.
const (
	// Layout is the primary format with a four-digit numeric offset.
	Layout = "2006-01-02T15:04:05.0000Z-0700"
	// LayoutNoOffset is the fallback format ending at the literal 'Z'.
	// Timestamps in this form are taken as UTC.
	LayoutNoOffset = "2006-01-02T15:04:05.0000Z"
)

// Parse parses an OAGIS DATETIMEISO string, trying the offset layout first
// and the no-offset layout second. On failure it appends a single
// ParseException entry to errs and returns nil; parse failure is not fatal
// for the caller, which proceeds with no timestamp. An empty input returns
// nil with no error recorded.
func Parse(text string, errs *errlist.List) *time.Time {
	if text == "" {
		return nil
	}

	t, err := time.Parse(Layout, text)
	if err != nil {
		t, err = time.Parse(LayoutNoOffset, text)
		if err != nil {
			if errs != nil {
				errs.Addf(errlist.ReasonParse, "error parsing date %q: %v", text, err)
			}
			return nil
		}
	}
	return &t
}

// Format renders a timestamp in the primary outbound format with a
// four-digit numeric offset.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// FormatNoOffset renders a timestamp in the no-offset fallback format. The
// timestamp is converted to UTC first, since the format carries no offset.
func FormatNoOffset(t time.Time) string {
	return t.UTC().Format(LayoutNoOffset)
}
