package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/arnold/goalsteps-api/internal/models"
)

// Goal payloads are CBOR with Core Deterministic Encoding: the same goal
// always encodes to the same bytes. Struct fields use their json tags.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("store: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeGoal serializes a whole goal, step tree included.
func EncodeGoal(g models.Goal) ([]byte, error) {
	data, err := encMode.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode goal %s: %w", g.ID, err)
	}
	return data, nil
}

// DecodeGoal is the inverse of EncodeGoal.
func DecodeGoal(data []byte) (models.Goal, error) {
	var g models.Goal
	if err := decMode.Unmarshal(data, &g); err != nil {
		return models.Goal{}, fmt.Errorf("decode goal: %w", err)
	}
	return g, nil
}
