package metabolism

import (
	"math"
	"time"

	"github.com/kkkiio/coffee-clock/internal/models"
)

// HalfLife is the average caffeine elimination half-life used by the model.
const HalfLife = 5 * time.Hour

// DefaultStep is the forecast sampling interval when none is given.
const DefaultStep = 30 * time.Minute

// Point is one sample of the projected residual curve.
type Point struct {
	At         time.Time
	CaffeineMg float64
}

// ResidualAt returns the projected residual caffeine in milligrams at the
// given instant. Each event that occurred at or before the query time
// contributes amount * 0.5^(elapsed/HalfLife); later events contribute
// nothing. The function is pure and additive over events.
func ResidualAt(events []models.IntakeEvent, at time.Time) float64 {
	var total float64
	for _, e := range events {
		if e.OccurredAt.After(at) {
			continue
		}
		elapsed := at.Sub(e.OccurredAt).Hours()
		total += e.CaffeineMg * math.Pow(0.5, elapsed/HalfLife.Hours())
	}
	return total
}

// ForecastSeries samples ResidualAt from start to end inclusive, step apart.
// The last point is the final sample at or before end; a non-positive step
// falls back to DefaultStep. An end before start yields no points.
func ForecastSeries(events []models.IntakeEvent, start, end time.Time, step time.Duration) []Point {
	if step <= 0 {
		step = DefaultStep
	}

	var points []Point
	for cur := start; !cur.After(end); cur = cur.Add(step) {
		points = append(points, Point{At: cur, CaffeineMg: ResidualAt(events, cur)})
	}
	return points
}
