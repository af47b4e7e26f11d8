package util

import (
	"fmt"
	"strconv"
	"time"
)

const DatedLayout = "2006-01-02 15:04:05"

var now = time.Now

// Dated prepends the current local time in log format to message.
func Dated(message string) string {
	return fmt.Sprintf("[%s] %s", now().Format(DatedLayout), message)
}

// ParseDate accepts a number of days before now or a YYYY-MM-DD date and
// returns the date in the format used by the API filters.
func ParseDate(str string) (string, error) {
	if days, err := strconv.Atoi(str); err == nil {
		if days < 0 {
			return "", fmt.Errorf("invalid number of days: %d", days)
		}
		return now().UTC().AddDate(0, 0, -days).Format("2006-01-02T15:04:05.000000"), nil
	}

	date, err := time.Parse("2006-01-02", str)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: expected a number of days or YYYY-MM-DD", str)
	}
	return date.Format("2006-01-02"), nil
}
