package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Suraj-219/Attendance/internal/session"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func sessionOn(started time.Time, attendees int) session.Session {
	sess := session.Session{StartedAt: started, Active: false}
	for i := 0; i < attendees; i++ {
		sess.Attendees = append(sess.Attendees, session.Attendee{
			StudentID:  "stu",
			Status:     session.StatusPresent,
			RecordedAt: started,
		})
	}
	return sess
}

func TestRangeDays(t *testing.T) {
	require.Equal(t, 14, RangeDays("2w"))
	require.Equal(t, 28, RangeDays("4w"))
	require.Equal(t, 28, RangeDays(""))
	require.Equal(t, 28, RangeDays("whatever"))
}

func TestDailyRatesEmpty(t *testing.T) {
	report := DailyRates(nil, 28, day(t, "2025-03-10"))

	require.Len(t, report.Daily, 28)
	for _, d := range report.Daily {
		require.Equal(t, 0, d.Rate)
	}
	require.Equal(t, 0, report.Rate)
	require.Equal(t, "2025-02-11", report.Daily[0].Date)
	require.Equal(t, "2025-03-10", report.Daily[27].Date)
}

func TestDailyRatesBuckets(t *testing.T) {
	today := day(t, "2025-03-10")
	sessions := []session.Session{
		// Two sessions on the 9th averaging 4 attendees -> rate 40.
		sessionOn(day(t, "2025-03-09").Add(9*time.Hour), 3),
		sessionOn(day(t, "2025-03-09").Add(14*time.Hour), 5),
		// One packed session on the 10th caps at 100.
		sessionOn(day(t, "2025-03-10").Add(9*time.Hour), 25),
	}

	report := DailyRates(sessions, 14, today)
	require.Len(t, report.Daily, 14)

	byDate := map[string]int{}
	for _, d := range report.Daily {
		byDate[d.Date] = d.Rate
	}
	require.Equal(t, 40, byDate["2025-03-09"])
	require.Equal(t, 100, byDate["2025-03-10"])
	require.Equal(t, 0, byDate["2025-03-08"])

	// Mean of 14 day rates, rounded: (40+100)/14 = 10.
	require.Equal(t, 10, report.Rate)
}

func TestOverallStats(t *testing.T) {
	late := session.Attendee{StudentID: "s", Status: session.StatusLate}
	present := session.Attendee{StudentID: "s", Status: session.StatusPresent}

	sessions := []session.Session{
		{Active: true, Attendees: []session.Attendee{present, late}},
		{Active: false, Attendees: []session.Attendee{present}},
		{Active: false},
	}

	stats := OverallStats(sessions)
	require.Equal(t, 3, stats.TotalSessions)
	require.Equal(t, 1, stats.ActiveSessions)
	require.Equal(t, 3, stats.TotalAttendance)
	require.Equal(t, 2, stats.PresentCount)
	require.Equal(t, 1, stats.LateCount)
}

func TestOverallStatsEmpty(t *testing.T) {
	stats := OverallStats(nil)
	require.Zero(t, stats.TotalSessions)
	require.Zero(t, stats.TotalAttendance)
}
