package energy

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/breakerview/breakerview/pkg/types"
)

// sampleSize is the width of one packed big-endian float32 sample.
const sampleSize = 4

// DecodeBlock decodes a base64 block of packed big-endian float32 joule values
// into kilowatt-hours, preserving order. An empty payload decodes to an empty
// series.
func DecodeBlock(b64 string) ([]float64, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64", Err: err}
	}
	if len(raw)%sampleSize != 0 {
		return nil, &DecodeError{
			Reason: fmt.Sprintf("length %d is not a multiple of %d", len(raw), sampleSize),
		}
	}

	kwh := make([]float64, len(raw)/sampleSize)
	for i := range kwh {
		bits := binary.BigEndian.Uint32(raw[i*sampleSize:])
		kwh[i] = JoulesToKWH(float64(math.Float32frombits(bits)))
	}
	return kwh, nil
}

// DecodeGroup decodes the blocks of a leaf energy group. A node with
// sub_groups or without blocks returns a *MalformedTreeError.
func DecodeGroup(g *types.Group) ([]float64, error) {
	if g == nil {
		return nil, &MalformedTreeError{Reason: "nil group"}
	}
	if !g.IsLeaf() {
		return nil, &MalformedTreeError{Group: g.Name, Reason: "internal group has no blocks of its own"}
	}
	if g.Blocks == nil {
		return nil, &MalformedTreeError{Group: g.Name, Reason: "leaf group is missing blocks"}
	}
	kwh, err := DecodeBlock(g.Blocks.Base64)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Group = g.Name
		}
		return nil, err
	}
	return kwh, nil
}
