package parser

import (
	"strconv"

	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/patterns"
	"github.com/netxfw/netxlog/pkg/errors"
)

// NetworkParser correlates tcpdump's verbose output into packet records.
//
// ARP and IPv6 packets fit on one line and are emitted immediately. IPv4
// packets span a header line (timestamp, length, proto) and a detail line
// (src > dst, payload length); the header is held as pending until the next
// line arrives, and the next line always completes it, matched or not.
//
// NetworkParser 将 tcpdump 的详细输出关联为数据包记录。
type NetworkParser struct {
	tbl     *patterns.Table
	pending *pendingIP
}

// pendingIP is a header waiting for its detail line.
type pendingIP struct {
	timestamp string
	length    int32
	proto     string
}

func NewNetworkParser(tbl *patterns.Table) *NetworkParser {
	return &NetworkParser{tbl: tbl}
}

// Pending reports whether a header line is waiting for its detail line.
func (p *NetworkParser) Pending() bool {
	return p.pending != nil
}

// Reset drops any partial record.
func (p *NetworkParser) Reset() {
	p.pending = nil
}

func (p *NetworkParser) Parse(text string) (event.Event, error) {
	if p.pending != nil {
		return p.complete(text), nil
	}

	switch {
	case p.tbl.ArpMarker.MatchString(text):
		return p.parseARP(text)
	case p.tbl.IP6Marker.MatchString(text):
		return p.parseIP6(text), nil
	case p.tbl.IPMarker.MatchString(text):
		p.pending = &pendingIP{
			timestamp: patterns.Submatch(p.tbl.NetTimestamp, text, 1),
			length:    parseInt32(patterns.Submatch(p.tbl.NetLength, text, 1)),
			proto:     patterns.Submatch(p.tbl.IPProto, text, 1),
		}
		return nil, nil
	default:
		return nil, errors.NewParseError(event.Net.String(), "no arp or ip marker")
	}
}

func (p *NetworkParser) parseARP(text string) (event.Event, error) {
	connectType := patterns.Submatch(p.tbl.ArpType, text, 1)
	whoHas := patterns.Submatch(p.tbl.ArpWhoHas, text, 1)
	tell := patterns.Submatch(p.tbl.ArpTell, text, 1)
	if connectType == "" || whoHas == "" || tell == "" {
		return nil, errors.NewParseError(event.Net.String(), "incomplete arp record")
	}

	return event.NetEvent{
		Timestamp: patterns.Submatch(p.tbl.NetTimestamp, text, 1),
		Length:    parseInt32(patterns.Submatch(p.tbl.NetLength, text, 1)),
		Payload: event.ArpPayload{
			ConnectType: connectType,
			WhoHas:      whoHas,
			Tell:        tell,
		},
	}, nil
}

// ipv6HeaderLen is added to the payload length to get the packet length.
const ipv6HeaderLen = 40

// parseIP6 builds a record from a single IPv6 line. The trailing transport
// "length N", when tcpdump prints one, is the payload length.
func (p *NetworkParser) parseIP6(text string) event.Event {
	payload := event.IpPayload{Proto: patterns.Submatch(p.tbl.IPProto, text, 1)}
	if m := p.tbl.IP6Addrs.FindStringSubmatch(text); m != nil {
		payload.Source = m[1]
		payload.Dest = m[2]
	}
	payload.PayloadLen = parseInt32(patterns.Submatch(p.tbl.NetLength, text, 1))

	var length int32
	if pl := patterns.Submatch(p.tbl.IP6Payload, text, 1); pl != "" {
		length = parseInt32(pl) + ipv6HeaderLen
	}

	return event.NetEvent{
		Timestamp: patterns.Submatch(p.tbl.NetTimestamp, text, 1),
		Length:    length,
		Payload:   payload,
	}
}

// complete finishes the pending record with text. An unmatched detail line
// still emits the record with empty addresses and zero payload length.
func (p *NetworkParser) complete(text string) event.Event {
	hdr := p.pending
	p.pending = nil

	payload := event.IpPayload{Proto: hdr.proto}
	if m := p.tbl.IPDetail.FindStringSubmatch(text); m != nil {
		payload.Source = m[1]
		payload.Dest = m[2]
		payload.PayloadLen = parseInt32(m[3])
	}

	return event.NetEvent{
		Timestamp: hdr.timestamp,
		Length:    hdr.length,
		Payload:   payload,
	}
}

// parseInt32 returns 0 for empty or out of range values.
func parseInt32(s string) int32 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}
