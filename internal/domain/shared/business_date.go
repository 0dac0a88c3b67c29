package shared

import "time"

// BusinessDateLayout is the wire format for business dates
const BusinessDateLayout = "2006-01-02"

// BusinessDate truncates a timestamp to its UTC midnight boundary. All
// day-cycle, ledger and transaction rows are keyed on this value;
// callers resolve "today" once at the request boundary and pass it down.
func BusinessDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatBusinessDate renders a business date as yyyy-mm-dd
func FormatBusinessDate(t time.Time) string {
	return t.UTC().Format(BusinessDateLayout)
}

// CompactBusinessDate renders a business date as yyyymmdd, used in
// transaction id formatting
func CompactBusinessDate(t time.Time) string {
	return t.UTC().Format("20060102")
}
