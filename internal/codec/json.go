// internal/codec/json.go
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/tamzrod/telemetry-emitter/internal/reading"
)

type jsonCodec struct{}

func (jsonCodec) Name() string { return JSON }

func (jsonCodec) Encode(r reading.Reading) ([]byte, error) {
	return json.Marshal(toWire(r))
}

func (jsonCodec) Decode(data []byte) (reading.Reading, error) {
	var w wireReading
	if err := json.Unmarshal(data, &w); err != nil {
		return reading.Reading{}, fmt.Errorf("codec json: %w", err)
	}
	return fromWire(w)
}
