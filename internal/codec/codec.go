// internal/codec/codec.go
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/telemetry-emitter/internal/reading"
)

// ErrUnknownEncoding is returned by New for an unrecognized codec name.
var ErrUnknownEncoding = errors.New("codec: unknown encoding")

// Codec turns a Reading into an opaque payload and back.
type Codec interface {
	Name() string
	Encode(r reading.Reading) ([]byte, error)
	Decode(data []byte) (reading.Reading, error)
}

// Encoding names.
const (
	JSON = "json"
	CBOR = "cbor"
)

// New returns the codec registered under name.
func New(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case JSON, "":
		return jsonCodec{}, nil
	case CBOR:
		return cborCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
}

// ---- WIRE SHAPE ----
// Field names are the contract with downstream collectors. All fields are always present.

type wireReading struct {
	Timestamp  string     `json:"timestamp" cbor:"timestamp"`
	SensorBlob sensorBlob `json:"sensor_blob" cbor:"sensor_blob"`
}

type sensorBlob struct {
	Lat float64 `json:"lat" cbor:"lat"`
	Lon float64 `json:"lon" cbor:"lon"`

	AccelX float64 `json:"accel_x" cbor:"accel_x"`
	AccelY float64 `json:"accel_y" cbor:"accel_y"`
	AccelZ float64 `json:"accel_z" cbor:"accel_z"`

	GyroX float64 `json:"gyro_x" cbor:"gyro_x"`
	GyroY float64 `json:"gyro_y" cbor:"gyro_y"`
	GyroZ float64 `json:"gyro_z" cbor:"gyro_z"`

	MagX float64 `json:"mag_x" cbor:"mag_x"`
	MagY float64 `json:"mag_y" cbor:"mag_y"`
	MagZ float64 `json:"mag_z" cbor:"mag_z"`

	Force  uint32 `json:"force" cbor:"force"`
	Linear uint32 `json:"linear" cbor:"linear"`
	String uint32 `json:"string" cbor:"string"`
}

func toWire(r reading.Reading) wireReading {
	return wireReading{
		Timestamp: reading.FormatTimestamp(r.Timestamp),
		SensorBlob: sensorBlob{
			Lat:    r.GPS.Lat,
			Lon:    r.GPS.Lon,
			AccelX: r.Accel.X,
			AccelY: r.Accel.Y,
			AccelZ: r.Accel.Z,
			GyroX:  r.Gyro.X,
			GyroY:  r.Gyro.Y,
			GyroZ:  r.Gyro.Z,
			MagX:   r.Mag.X,
			MagY:   r.Mag.Y,
			MagZ:   r.Mag.Z,
			Force:  r.Force,
			Linear: r.Linear,
			String: r.String,
		},
	}
}

func fromWire(w wireReading) (reading.Reading, error) {
	ts, err := reading.ParseTimestamp(w.Timestamp)
	if err != nil {
		return reading.Reading{}, fmt.Errorf("codec: timestamp: %w", err)
	}

	b := w.SensorBlob
	return reading.Reading{
		Timestamp: ts,
		GPS:       reading.GPS{Lat: b.Lat, Lon: b.Lon},
		Accel:     reading.Vec3{X: b.AccelX, Y: b.AccelY, Z: b.AccelZ},
		Gyro:      reading.Vec3{X: b.GyroX, Y: b.GyroY, Z: b.GyroZ},
		Mag:       reading.Vec3{X: b.MagX, Y: b.MagY, Z: b.MagZ},
		Force:     b.Force,
		Linear:    b.Linear,
		String:    b.String,
	}, nil
}
