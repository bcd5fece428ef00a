package repository

import "time"

// AccountingDay returns the fee accounting day (YYYY-MM-DD) for a given
// timestamp. Daily fee totals roll over at midnight UTC.
func AccountingDay(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

// AccountingDayNow returns the accounting day for the current moment.
func AccountingDayNow() string {
	return AccountingDay(time.Now())
}
