// Package timefmt handles the minute-resolution timestamps exchanged with
// clients ("2023-04-14 09:00").
package timefmt

import (
	"strings"
	"time"

	"grid-reservation/internal/pkg/errs"
)

const Layout = "2006-01-02 15:04"

// DisplayLayout is used when rendering stored reservations.
const DisplayLayout = "2006-01-02 15:04:05"

var ErrInvalidTimestamp = errs.New("invalid timestamp, expected YYYY-MM-DD HH:MM")

// Parse accepts the value with or without surrounding single quotes; the
// terminal client quotes query parameters.
func Parse(value string, loc *time.Location) (time.Time, error) {
	v := strings.Trim(strings.TrimSpace(value), "'")
	t, err := time.ParseInLocation(Layout, v, loc)
	if err != nil {
		return time.Time{}, errs.Wrapf(ErrInvalidTimestamp, "parse %q", v)
	}
	return t, nil
}

func Format(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DisplayLayout)
}

// Unquote strips the single quotes the terminal client puts around query values.
func Unquote(value string) string {
	return strings.Trim(value, "'")
}
