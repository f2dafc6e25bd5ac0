package energy

import (
	"encoding/base64"
	"encoding/binary"
	"log/slog"
	"math"

	"github.com/breakerview/breakerview/pkg/log"
	"github.com/breakerview/breakerview/pkg/types"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

// encodeJoules packs values the way the service does.
func encodeJoules(values ...float32) string {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func leaf(name string, values ...float32) types.Group {
	return types.Group{Name: name, Blocks: &types.Blocks{Base64: encodeJoules(values...)}}
}

func node(name string, children ...types.Group) types.Group {
	if children == nil {
		children = []types.Group{}
	}
	return types.Group{Name: name, SubGroups: children}
}

func names(groups []*types.Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Name
	}
	return out
}
