package collector

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/netxfw/netxlog/internal/event"
)

// SourceStats counts what happened to one source's lines.
type SourceStats struct {
	Read    uint64
	Emitted uint64
	Dropped uint64
}

// Stats is returned by Collector.Run.
// Stats 由 Collector.Run 返回。
type Stats struct {
	Sources    map[event.Source]*SourceStats
	SinkErrors uint64
	Pending    bool
	Started    time.Time
	Elapsed    time.Duration
}

func newStats(readers int) Stats {
	return Stats{
		Sources: make(map[event.Source]*SourceStats, readers),
		Started: time.Now(),
	}
}

func (s *Stats) source(src event.Source) *SourceStats {
	st, ok := s.Sources[src]
	if !ok {
		st = &SourceStats{}
		s.Sources[src] = st
	}
	return st
}

// Totals sums every source.
func (s Stats) Totals() SourceStats {
	var t SourceStats
	for _, st := range s.Sources {
		t.Read += st.Read
		t.Emitted += st.Emitted
		t.Dropped += st.Dropped
	}
	return t
}

// Summary renders a one-line human readable report.
func (s Stats) Summary() string {
	t := s.Totals()
	var b strings.Builder
	fmt.Fprintf(&b, "%s lines read, %s events emitted, %s dropped in %s",
		humanize.Comma(int64(t.Read)),
		humanize.Comma(int64(t.Emitted)),
		humanize.Comma(int64(t.Dropped)),
		s.Elapsed.Round(time.Millisecond),
	)
	for _, src := range event.Sources {
		if st, ok := s.Sources[src]; ok {
			fmt.Fprintf(&b, "; %s %s/%s", src, humanize.Comma(int64(st.Emitted)), humanize.Comma(int64(st.Read)))
		}
	}
	if s.SinkErrors > 0 {
		fmt.Fprintf(&b, "; %s sink errors", humanize.Comma(int64(s.SinkErrors)))
	}
	return b.String()
}
