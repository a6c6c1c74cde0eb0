// internal/codec/cbor.go
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/tamzrod/telemetry-emitter/internal/reading"
)

// Core Deterministic Encoding: same reading, same bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

type cborCodec struct{}

func (cborCodec) Name() string { return CBOR }

func (cborCodec) Encode(r reading.Reading) ([]byte, error) {
	return encMode.Marshal(toWire(r))
}

func (cborCodec) Decode(data []byte) (reading.Reading, error) {
	var w wireReading
	if err := decMode.Unmarshal(data, &w); err != nil {
		return reading.Reading{}, fmt.Errorf("codec cbor: %w", err)
	}
	return fromWire(w)
}
