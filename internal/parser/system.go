package parser

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/pkg/errors"
)

// SystemParser decodes ndjson records from the system log stream.
type SystemParser struct{}

func NewSystemParser() *SystemParser {
	return &SystemParser{}
}

func (p *SystemParser) Parse(text string) (event.Event, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.NewParseError(event.Sys.String(), "invalid json: "+err.Error())
	}
	// Trailing garbage after the first value makes the line malformed.
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.NewParseError(event.Sys.String(), "trailing data after json value")
	}
	return event.SysEvent{Value: v}, nil
}
