package report

import (
	"fmt"

	"github.com/levenlabs/go-lflag"

	"github.com/breakerview/breakerview/pkg/monitor"
	"github.com/breakerview/breakerview/pkg/storage"
	"github.com/breakerview/breakerview/pkg/topology"
)

// Configured sets up the Reporter from flags.
func Configured(svc monitor.Service, db storage.Database) *Reporter {
	indexing := lflag.String("space-indexing", topology.SpaceIndexingExclusive.String(), "How panel spaces are numbered (exclusive: 1..N-1, inclusive: 1..N)")

	r := New(svc, db, topology.SpaceIndexingExclusive, 0)

	lflag.Do(func() {
		si, err := topology.ParseSpaceIndexing(*indexing)
		if err != nil {
			panic(fmt.Sprintf("invalid space-indexing: %v", err))
		}
		r.indexing = si
	})

	return r
}
