// Package domain models daily epidemiological situation reports and the
// per-region time series built from them.
//
// # Data Source
//
// Reports follow the layout of the CSSE COVID-19 daily reports: one CSV file
// per day, named after the reporting date in MM-DD-YYYY form, e.g.
// "03-21-2020.csv". Each row is a cumulative snapshot for one
// country/region (and optionally one province/state within it).
//
// # Report Conventions
//
// File names:
//
//	"MM-DD-YYYY.<ext>"  →  e.g. "03-21-2020.csv" is the report for 2020-03-21.
//	Anything else in the directory (README.md, .gitignore, "2020-03-21.csv")
//	is not a report and is ignored without comment.
//	Sorting the names as strings is NOT chronological: "01-02-2021.csv"
//	sorts before "12-31-2020.csv". Consumers must not rely on input order.
//
// Columns (header names are matched after trimming whitespace):
//
//	Country/Region   required, the series identity
//	Province/State   optional, kept only from the row that first creates a region
//	Confirmed        optional cumulative count, empty = 0
//	Deaths           optional cumulative count, empty = 0
//	Recovered        optional cumulative count, empty = 0
//
// Subdivisions:
//
//	Rows are keyed by Country/Region alone. Several provinces of the same
//	country reported on the same day produce several observations for that
//	day, which reconciliation later sums into one. This is intentional: a
//	country series is the total of its subdivisions.
//
// # Reconciliation
//
// Upstream counts are cumulative and should never decrease, but corrections
// and late reclassification make them do so. [Clean] sorts a series by day,
// sums same-day duplicates and raises any value that dips below its
// predecessor. Series with fewer than three observations are left untouched.
package domain
