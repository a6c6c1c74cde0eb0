// internal/reading/generator.go
package reading

import (
	"math/rand/v2"
	"time"
)

// Generator builds Readings from a fixed channel set.
// It holds no mutable state; randomness is supplied per call.
type Generator struct {
	channels Channels
	now      func() time.Time
}

// NewGenerator returns a generator over the given channels.
// Timestamps come from a wall clock anchored to the monotonic clock,
// so successive readings never go backwards even if the system clock is stepped.
func NewGenerator(channels Channels) *Generator {
	return NewGeneratorWithClock(channels, monotonicClock(time.Now()))
}

// NewGeneratorWithClock is NewGenerator with an explicit time source.
func NewGeneratorWithClock(channels Channels, now func() time.Time) *Generator {
	return &Generator{channels: channels, now: now}
}

// Channels returns the bounds the generator draws from.
func (g *Generator) Channels() Channels {
	return g.channels
}

// Generate samples one Reading. It advances r and cannot fail.
func (g *Generator) Generate(r *rand.Rand) Reading {
	ch := g.channels

	return Reading{
		Timestamp: g.now().UTC(),
		GPS: GPS{
			Lat: drawFloat(r, ch.Lat),
			Lon: drawFloat(r, ch.Lon),
		},
		Accel:  drawVec3(r, ch.Accel),
		Gyro:   drawVec3(r, ch.Gyro),
		Mag:    drawVec3(r, ch.Mag),
		Force:  drawInt(r, ch.Force),
		Linear: drawInt(r, ch.Linear),
		String: drawInt(r, ch.String),
	}
}

func drawVec3(r *rand.Rand, c FloatChannel) Vec3 {
	return Vec3{
		X: drawFloat(r, c),
		Y: drawFloat(r, c),
		Z: drawFloat(r, c),
	}
}

func drawFloat(r *rand.Rand, c FloatChannel) float64 {
	lo, hi := c.Min(), c.Max()
	v := lo + r.Float64()*(hi-lo)
	// rounding can land a hair outside the interval
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func drawInt(r *rand.Rand, c IntChannel) uint32 {
	lo, hi := uint64(c.Min()), uint64(c.Max())
	return uint32(lo + r.Uint64N(hi-lo+1))
}

func monotonicClock(epoch time.Time) func() time.Time {
	return func() time.Time {
		return epoch.Add(time.Since(epoch))
	}
}
