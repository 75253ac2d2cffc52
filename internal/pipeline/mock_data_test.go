package pipeline_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/outbreak-trends/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const reportHeader = "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered"

// fixedToday is the frozen "today" for window calculations in these tests.
var fixedToday = time.Date(2021, time.January, 10, 9, 30, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fixedToday))
	t.Cleanup(func() { domain.SetClock(nil) })
}

// reportName formats a report file name for the given date.
func reportName(d time.Time) string {
	return d.Format("01-02-2006") + ".csv"
}

// writeReport writes a daily report with the given data rows to dir.
func writeReport(t *testing.T, dir string, d time.Time, rows ...string) {
	t.Helper()
	content := reportHeader + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, reportName(d)), []byte(content), 0o600))
}

// row formats one data row.
func row(subdivision, region string, confirmed, deaths, recovered any) string {
	return fmt.Sprintf("%s,%s,2021-01-01T00:00:00,%v,%v,%v", subdivision, region, confirmed, deaths, recovered)
}

func date(month time.Month, d, year int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
