package event

import (
	"encoding/json"
	"fmt"
)

// Event is a normalized record produced by a parser.
// The set of implementations is closed: SysEvent, FsEvent and NetEvent.
type Event interface {
	Source() Source
	// Kind is a short label used for metrics and filters.
	Kind() string
	isEvent()
}

// SysEvent is a system log record. The line is already structured so the
// decoded JSON value is kept as is.
type SysEvent struct {
	Value any
}

func (SysEvent) Source() Source { return Sys }
func (SysEvent) Kind() string   { return "log" }
func (SysEvent) isEvent()       {}

func (e SysEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Value)
}

// FsEvent is a filesystem syscall record.
type FsEvent struct {
	Time        string   `json:"time"`
	EventType   string   `json:"event_type"`
	Duration    float64  `json:"duration"`
	ProcessName string   `json:"process_name"`
	Pid         int32    `json:"pid"`
	FilePaths   []string `json:"file_paths"`
}

func (FsEvent) Source() Source { return Fs }
func (e FsEvent) Kind() string { return e.EventType }
func (FsEvent) isEvent()       {}

// NetPayload is the variant part of a NetEvent: either ArpPayload or IpPayload.
type NetPayload interface {
	netPayload()
}

// ArpPayload is an address resolution query.
type ArpPayload struct {
	ConnectType string `json:"connect_type"`
	WhoHas      string `json:"who_has"`
	Tell        string `json:"tell"`
}

func (ArpPayload) netPayload() {}

// IpPayload is an IP packet correlated from a header line and a detail line.
type IpPayload struct {
	Proto      string `json:"proto"`
	PayloadLen int32  `json:"payload_len"`
	Source     string `json:"source"`
	Dest       string `json:"dest"`
}

func (IpPayload) netPayload() {}

// NetEvent is a packet record. Timestamp and Length are shared by both variants.
type NetEvent struct {
	Timestamp string
	Length    int32
	Payload   NetPayload
}

func (NetEvent) Source() Source { return Net }
func (NetEvent) isEvent()       {}

func (e NetEvent) Kind() string {
	switch e.Payload.(type) {
	case ArpPayload:
		return "arp"
	case IpPayload:
		return "ip"
	default:
		return "unknown"
	}
}

func (e NetEvent) MarshalJSON() ([]byte, error) {
	switch p := e.Payload.(type) {
	case ArpPayload:
		return json.Marshal(struct {
			Type      string `json:"type"`
			Timestamp string `json:"timestamp"`
			Length    int32  `json:"length"`
			ArpPayload
		}{"arp", e.Timestamp, e.Length, p})
	case IpPayload:
		return json.Marshal(struct {
			Type      string `json:"type"`
			Timestamp string `json:"timestamp"`
			Length    int32  `json:"length"`
			IpPayload
		}{"ip", e.Timestamp, e.Length, p})
	default:
		return nil, fmt.Errorf("net event: unknown payload %T", e.Payload)
	}
}
