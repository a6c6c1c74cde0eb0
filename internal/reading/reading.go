// internal/reading/reading.go
package reading

import "time"

// TimestampLayout is the text form of a reading timestamp (UTC, nanoseconds).
const TimestampLayout = "2006-01-02 15:04:05.000000000"

// Vec3 is one x/y/z axis triple.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// GPS is a latitude/longitude pair in degrees.
type GPS struct {
	Lat float64
	Lon float64
}

// Reading is one synthetic multi-sensor sample.
// It is created per emission attempt and never mutated.
type Reading struct {
	Timestamp time.Time

	GPS   GPS
	Accel Vec3
	Gyro  Vec3
	Mag   Vec3

	Force  uint32
	Linear uint32
	String uint32
}

// FormatTimestamp renders t the way readings carry it on the wire.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.UTC)
}
