package stats

import (
	"context"
	"math"
	"sort"

	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/student"
)

// Window is the number of most recent recorded dates of each student taken into account.
const Window = 4

// Fixed insight texts returned instead of an error.
const (
	InsightNotConfigured = "The insight service is not configured."
	InsightEmpty         = "No insight could be generated."
	InsightUnavailable   = "The insight service cannot be reached."
	InsightNoData        = "There is no attendance data to analyze yet."
)

// Point is the attendance summary of one date.
type Point struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
	Rate    int    `json:"rate"` // percentage of present over recorded, 0..100
}

// Insighter produces a short natural-language commentary on a series.
// It never fails: errors are reported through the fixed Insight* texts.
type Insighter interface {
	Insight(ctx context.Context, points []Point, role member.Role) string
}

// Series aggregates the attendance of students by date.
// Only the Window latest recorded dates of each student contribute, so dates may be
// represented by a subset of the students. Present and Late count as present,
// anything else as absent. Points are sorted by ascending date.
func Series(students []student.Student) []Point {
	type tally struct{ present, total int }
	byDate := make(map[string]*tally)

	for _, s := range students {
		dates := make([]string, 0, len(s.Attendance))
		for d := range s.Attendance {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		if len(dates) > Window {
			dates = dates[len(dates)-Window:]
		}
		for _, d := range dates {
			t, ok := byDate[d]
			if !ok {
				t = &tally{}
				byDate[d] = t
			}
			t.total++
			if s.Attendance[d].CountsPresent() {
				t.present++
			}
		}
	}

	points := make([]Point, 0, len(byDate))
	for d, t := range byDate {
		points = append(points, Point{
			Date:    d,
			Present: t.present,
			Absent:  t.total - t.present,
			Rate:    rate(t.present, t.total),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

func rate(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(present)/float64(total)*100 + .5))
}
