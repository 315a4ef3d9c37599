// Package parser turns raw subprocess lines into structured events.
//
// Every parser is driven by a single consumer goroutine, so parsers keep their
// state without locks. Parse returns:
//   - (event, nil) when a record is complete,
//   - (nil, nil) when the line was consumed but nothing is ready yet,
//   - (nil, err) when the line was dropped; err wraps errors.ErrParse.
package parser

import (
	"fmt"

	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/patterns"
	"github.com/netxfw/netxlog/pkg/errors"
)

// Parser consumes one line of a single source.
type Parser interface {
	Parse(text string) (event.Event, error)
}

// Registry dispatches lines to the parser owning their source.
// Registry 根据来源将行分发给对应的解析器。
type Registry struct {
	sys *SystemParser
	fs  *FilesystemParser
	net *NetworkParser
}

// NewRegistry builds one parser per source over a shared pattern table.
func NewRegistry(tbl *patterns.Table) *Registry {
	return &Registry{
		sys: NewSystemParser(),
		fs:  NewFilesystemParser(tbl),
		net: NewNetworkParser(tbl),
	}
}

// Dispatch parses line with the parser for line.Source.
func (r *Registry) Dispatch(line event.RawLine) (event.Event, error) {
	switch line.Source {
	case event.Sys:
		return r.sys.Parse(line.Text)
	case event.Fs:
		return r.fs.Parse(line.Text)
	case event.Net:
		return r.net.Parse(line.Text)
	default:
		return nil, fmt.Errorf("%w: %d", errors.ErrUnknownSource, uint8(line.Source))
	}
}

// Network exposes the stateful network parser, mainly for shutdown reporting.
func (r *Registry) Network() *NetworkParser {
	return r.net
}
