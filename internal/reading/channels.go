// internal/reading/channels.go
package reading

import (
	"fmt"
	"math"
	"sort"
)

// Channel names. These are the keys accepted in configuration.
const (
	ChannelLat    = "lat"
	ChannelLon    = "lon"
	ChannelAccel  = "accel"
	ChannelGyro   = "gyro"
	ChannelMag    = "mag"
	ChannelForce  = "force"
	ChannelLinear = "linear"
	ChannelString = "string"
)

// FloatChannel bounds a uniform draw to [Seed-Range, Seed+Range].
type FloatChannel struct {
	Seed  float64
	Range float64
}

func (c FloatChannel) Min() float64 { return c.Seed - c.Range }
func (c FloatChannel) Max() float64 { return c.Seed + c.Range }

// IntChannel bounds an inclusive integer draw to [Seed-Range, Seed+Range].
// Range must not exceed Seed.
type IntChannel struct {
	Seed  uint32
	Range uint32
}

func (c IntChannel) Min() uint32 { return c.Seed - c.Range }
func (c IntChannel) Max() uint32 { return c.Seed + c.Range }

// Channels is the full set of per-channel bounds used by a Generator.
// Accel, Gyro and Mag apply to all three axes.
type Channels struct {
	Lat   FloatChannel
	Lon   FloatChannel
	Accel FloatChannel
	Gyro  FloatChannel
	Mag   FloatChannel

	Force  IntChannel
	Linear IntChannel
	String IntChannel
}

// DefaultChannels returns the stock bounds.
func DefaultChannels() Channels {
	return Channels{
		Lat:   FloatChannel{Seed: 44.56457, Range: 1},
		Lon:   FloatChannel{Seed: -123.26204, Range: 1},
		Accel: FloatChannel{Seed: 0, Range: 5},
		Gyro:  FloatChannel{Seed: 0, Range: 10},
		Mag:   FloatChannel{Seed: 0, Range: 50},

		Force:  IntChannel{Seed: 15, Range: 10},
		Linear: IntChannel{Seed: 12, Range: 6},
		String: IntChannel{Seed: 10, Range: 8},
	}
}

// Names lists every known channel name, sorted.
func Names() []string {
	names := []string{
		ChannelLat, ChannelLon,
		ChannelAccel, ChannelGyro, ChannelMag,
		ChannelForce, ChannelLinear, ChannelString,
	}
	sort.Strings(names)
	return names
}

// IsInteger reports whether the named channel draws unsigned integers.
func IsInteger(name string) bool {
	switch name {
	case ChannelForce, ChannelLinear, ChannelString:
		return true
	}
	return false
}

// Get returns the bounds of one channel by name.
func (c Channels) Get(name string) (seed, rng float64, ok bool) {
	switch name {
	case ChannelLat:
		return c.Lat.Seed, c.Lat.Range, true
	case ChannelLon:
		return c.Lon.Seed, c.Lon.Range, true
	case ChannelAccel:
		return c.Accel.Seed, c.Accel.Range, true
	case ChannelGyro:
		return c.Gyro.Seed, c.Gyro.Range, true
	case ChannelMag:
		return c.Mag.Seed, c.Mag.Range, true
	case ChannelForce:
		return float64(c.Force.Seed), float64(c.Force.Range), true
	case ChannelLinear:
		return float64(c.Linear.Seed), float64(c.Linear.Range), true
	case ChannelString:
		return float64(c.String.Seed), float64(c.String.Range), true
	}
	return 0, 0, false
}

// Set overrides the bounds of one channel by name.
// Integer channels reject negative or fractional values and a range wider than the seed.
func (c *Channels) Set(name string, seed, rng float64) error {
	if rng < 0 {
		return fmt.Errorf("reading: channel %q: range must be >= 0", name)
	}

	if IsInteger(name) {
		if seed < 0 || seed > math.MaxUint32 || seed != math.Trunc(seed) || rng != math.Trunc(rng) {
			return fmt.Errorf("reading: channel %q: seed and range must be non-negative integers", name)
		}
		if rng > seed {
			return fmt.Errorf("reading: channel %q: range %v exceeds seed %v", name, rng, seed)
		}
		ic := IntChannel{Seed: uint32(seed), Range: uint32(rng)}
		if uint64(ic.Seed)+uint64(ic.Range) > uint64(^uint32(0)) {
			return fmt.Errorf("reading: channel %q: seed+range overflows", name)
		}
		switch name {
		case ChannelForce:
			c.Force = ic
		case ChannelLinear:
			c.Linear = ic
		case ChannelString:
			c.String = ic
		}
		return nil
	}

	fc := FloatChannel{Seed: seed, Range: rng}
	switch name {
	case ChannelLat:
		c.Lat = fc
	case ChannelLon:
		c.Lon = fc
	case ChannelAccel:
		c.Accel = fc
	case ChannelGyro:
		c.Gyro = fc
	case ChannelMag:
		c.Mag = fc
	default:
		return fmt.Errorf("reading: unknown channel %q", name)
	}
	return nil
}
