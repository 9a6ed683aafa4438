// Package analytics derives attendance rates from session snapshots.
// Everything here is pure; callers supply the sessions and the clock.
package analytics

import (
	"math"
	"time"

	"github.com/Suraj-219/Attendance/internal/session"
)

// NominalClassSize scales average attendees per session into a 0-100 rate.
// There is no enrollment roster, so this is a placeholder metric rather
// than a true percentage.
const NominalClassSize = 10

// DailyRate is one calendar day's attendance rate.
type DailyRate struct {
	Date string `json:"date"`
	Rate int    `json:"rate"`
}

// Report is the trailing-window rate series plus its mean.
type Report struct {
	Daily []DailyRate `json:"daily"`
	Rate  int         `json:"rate"`
}

// Stats are whole-history attendance totals.
type Stats struct {
	TotalSessions   int `json:"totalSessions"`
	ActiveSessions  int `json:"activeSessions"`
	TotalAttendance int `json:"totalAttendance"`
	PresentCount    int `json:"presentCount"`
	LateCount       int `json:"lateCount"`
}

// RangeDays maps the coarse range enum to trailing days: "2w" is 14,
// anything else 28.
func RangeDays(rng string) int {
	if rng == "2w" {
		return 14
	}
	return 28
}

// DailyRates buckets sessions by UTC calendar date over the trailing window
// ending today and reports one rate per day, zero for days without sessions.
func DailyRates(sessions []session.Session, days int, today time.Time) Report {
	byDate := make(map[string][]session.Session)
	for _, sess := range sessions {
		key := sess.StartedAt.UTC().Format("2006-01-02")
		byDate[key] = append(byDate[key], sess)
	}

	daily := make([]DailyRate, 0, days)
	sum := 0
	for i := days - 1; i >= 0; i-- {
		date := today.UTC().AddDate(0, 0, -i).Format("2006-01-02")
		rate := 0
		if daySessions := byDate[date]; len(daySessions) > 0 {
			total := 0
			for _, sess := range daySessions {
				total += len(sess.Attendees)
			}
			avg := float64(total) / float64(len(daySessions))
			rate = int(math.Round(avg * NominalClassSize))
			if rate > 100 {
				rate = 100
			}
		}
		daily = append(daily, DailyRate{Date: date, Rate: rate})
		sum += rate
	}

	overall := 0
	if len(daily) > 0 {
		overall = int(math.Round(float64(sum) / float64(len(daily))))
	}
	return Report{Daily: daily, Rate: overall}
}

// OverallStats totals attendance over all sessions.
func OverallStats(sessions []session.Session) Stats {
	var stats Stats
	stats.TotalSessions = len(sessions)
	for _, sess := range sessions {
		if sess.Active {
			stats.ActiveSessions++
		}
		stats.TotalAttendance += len(sess.Attendees)
		for _, a := range sess.Attendees {
			switch a.Status {
			case session.StatusPresent:
				stats.PresentCount++
			case session.StatusLate:
				stats.LateCount++
			}
		}
	}
	return stats
}
