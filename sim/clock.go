package sim

import "fmt"

// TimeScale multiplies elapsed real time into simulated time.
type TimeScale int

const (
	ScalePaused TimeScale = 0
	ScaleNormal TimeScale = 1
	ScaleFast   TimeScale = 3
)

// ParseTimeScale validates an integer scale.
func ParseTimeScale(v int) (TimeScale, error) {
	switch s := TimeScale(v); s {
	case ScalePaused, ScaleNormal, ScaleFast:
		return s, nil
	}
	return 0, fmt.Errorf("%w: %d (want 0, 1 or 3)", ErrInvalidTimeScale, v)
}

// Clock tracks simulated time. It is fed elapsed real time per call and has no
// notion of a frame or wall clock.
type Clock struct {
	Now   float64 // simulated seconds since start
	Scale TimeScale
}

// Advance converts elapsed real seconds into a simulated delta and moves Now.
// Negative elapsed time is treated as zero.
func (c *Clock) Advance(elapsedReal float64) float64 {
	if elapsedReal <= 0 {
		return 0
	}
	dt := elapsedReal * float64(c.Scale)
	c.Now += dt
	return dt
}
