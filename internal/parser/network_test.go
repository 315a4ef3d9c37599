package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/patterns"
	"github.com/netxfw/netxlog/pkg/errors"
)

const (
	arpLine   = "10:00:00.000000 ARP, Request who-has 10.0.0.1 tell 10.0.0.2, length 28"
	ipHeader  = "10:00:00.000000 IP (tos 0x0, ttl 64, id 4242, offset 0, flags [DF], proto TCP (6), length 60)"
	ipDetail  = "    10.0.0.1.80 > 10.0.0.2.9999: Flags [P.], cksum 0x1c2d (correct), seq 1:41, ack 1, win 2048, length 40"
	unrelated = "listening on en0, link-type EN10MB (Ethernet), snapshot length 524288 bytes"
	ip6Header = "10:00:01.500000 IP6 (flowlabel 0x1, hlim 255, next-header UDP (17) payload length: 32) fe80::1.5353 > ff02::fb.5353: [udp sum ok] 0 PTR (QM)?"
)

// TestNetworkParser_Arp tests that a complete ARP line emits immediately
// TestNetworkParser_Arp 测试完整的 ARP 行立即产生事件
func TestNetworkParser_Arp(t *testing.T) {
	p := NewNetworkParser(patterns.Default())

	ev, err := p.Parse(arpLine)
	require.NoError(t, err)
	assert.Equal(t, event.NetEvent{
		Timestamp: "10:00:00.000000",
		Length:    28,
		Payload:   event.ArpPayload{ConnectType: "Request", WhoHas: "10.0.0.1", Tell: "10.0.0.2"},
	}, ev)
	assert.False(t, p.Pending(), "parser must stay idle after an arp record")

	// Next line is handled from Idle again.
	ev, err = p.Parse(arpLine)
	require.NoError(t, err)
	assert.NotNil(t, ev)
}

func TestNetworkParser_PartialArpDropped(t *testing.T) {
	p := NewNetworkParser(patterns.Default())

	lines := []string{
		"10:00:00.000000 ARP, Reply 10.0.0.1 is-at aa:bb:cc:dd:ee:ff, length 28",
		"10:00:00.000000 ARP, Request who-has 10.0.0.1, length 28",
		"10:00:00.000000 ARP, who-has 10.0.0.1 tell 10.0.0.2, length 28",
	}
	for _, line := range lines {
		ev, err := p.Parse(line)
		assert.Nil(t, ev, line)
		assert.ErrorIs(t, err, errors.ErrParse, line)
		assert.False(t, p.Pending())
	}
}

// TestNetworkParser_IpCorrelation tests the two-line scenario
// TestNetworkParser_IpCorrelation 测试两行关联场景
func TestNetworkParser_IpCorrelation(t *testing.T) {
	p := NewNetworkParser(patterns.Default())

	ev, err := p.Parse("10:00:00.000000 IP ... proto TCP ...")
	require.NoError(t, err)
	assert.Nil(t, ev, "header line must not emit")
	assert.True(t, p.Pending())

	ev, err = p.Parse("10.0.0.1.80 > 10.0.0.2.9999: Flags ... length 40")
	require.NoError(t, err)
	assert.False(t, p.Pending())

	net := ev.(event.NetEvent)
	assert.Equal(t, "10:00:00.000000", net.Timestamp)
	assert.Equal(t, int32(0), net.Length)
	assert.Equal(t, event.IpPayload{Proto: "TCP", PayloadLen: 40, Source: "10.0.0.1.80", Dest: "10.0.0.2.9999"}, net.Payload)
}

func TestNetworkParser_VerboseTcpdump(t *testing.T) {
	p := NewNetworkParser(patterns.Default())

	ev, err := p.Parse(ipHeader)
	require.NoError(t, err)
	require.Nil(t, ev)

	ev, err = p.Parse(ipDetail)
	require.NoError(t, err)
	assert.Equal(t, event.NetEvent{
		Timestamp: "10:00:00.000000",
		Length:    60,
		Payload:   event.IpPayload{Proto: "TCP", PayloadLen: 40, Source: "10.0.0.1.80", Dest: "10.0.0.2.9999"},
	}, ev)
}

// TestNetworkParser_UnmatchedDetail tests that the record is still emitted
// TestNetworkParser_UnmatchedDetail 测试详情行不匹配时仍输出记录
func TestNetworkParser_UnmatchedDetail(t *testing.T) {
	p := NewNetworkParser(patterns.Default())

	_, err := p.Parse(ipHeader)
	require.NoError(t, err)

	// An ARP line in the detail slot is consumed as the detail, not re-parsed.
	ev, err := p.Parse(arpLine)
	require.NoError(t, err)
	assert.Equal(t, event.NetEvent{
		Timestamp: "10:00:00.000000",
		Length:    60,
		Payload:   event.IpPayload{Proto: "TCP"},
	}, ev)
	assert.False(t, p.Pending())
}

// TestNetworkParser_Ip6 tests that an IPv6 line is a complete record and
// leaves the pairing of a following IPv4 header and detail intact
// TestNetworkParser_Ip6 测试 IPv6 单行即为完整记录，且不影响后续 IPv4 行的配对
func TestNetworkParser_Ip6(t *testing.T) {
	p := NewNetworkParser(patterns.Default())

	var events []event.NetEvent
	for _, line := range []string{ip6Header, ipHeader, ipDetail} {
		ev, err := p.Parse(line)
		require.NoError(t, err, line)
		if ev != nil {
			events = append(events, ev.(event.NetEvent))
		}
	}
	require.Len(t, events, 2)

	assert.Equal(t, event.NetEvent{
		Timestamp: "10:00:01.500000",
		Length:    72,
		Payload:   event.IpPayload{Proto: "UDP", Source: "fe80::1.5353", Dest: "ff02::fb.5353"},
	}, events[0])
	assert.Equal(t, event.IpPayload{Proto: "TCP", Source: "10.0.0.1.80", Dest: "10.0.0.2.9999", PayloadLen: 40}, events[1].Payload)
	assert.False(t, p.Pending())
}

func TestNetworkParser_Ip6TcpLength(t *testing.T) {
	p := NewNetworkParser(patterns.Default())

	ev, err := p.Parse("10:00:02.000000 IP6 (flowlabel 0x0, hlim 64, next-header TCP (6) payload length: 52) ::1.80 > ::1.9999: Flags [P.], seq 1:21, ack 1, win 6379, length 20")
	require.NoError(t, err)
	net := ev.(event.NetEvent)
	assert.Equal(t, int32(92), net.Length)
	assert.Equal(t, event.IpPayload{Proto: "TCP", Source: "::1.80", Dest: "::1.9999", PayloadLen: 20}, net.Payload)
	assert.False(t, p.Pending())
}

func TestNetworkParser_UnrelatedDropped(t *testing.T) {
	p := NewNetworkParser(patterns.Default())

	ev, err := p.Parse(unrelated)
	assert.Nil(t, ev)
	assert.ErrorIs(t, err, errors.ErrParse)
	assert.False(t, p.Pending())
}

// TestNetworkParser_Cardinality feeds a mixed stream and counts emissions
// TestNetworkParser_Cardinality 输入混合流并统计输出数量
func TestNetworkParser_Cardinality(t *testing.T) {
	p := NewNetworkParser(patterns.Default())

	stream := []string{
		unrelated, // dropped
		ipHeader,  // pending
		ipDetail,  // ip #1
		arpLine,   // arp #1
		ipHeader,  // pending
		unrelated, // ip #2 with empty addresses
		ipHeader,  // pending
	}

	var kinds []string
	for _, line := range stream {
		ev, _ := p.Parse(line)
		if ev != nil {
			kinds = append(kinds, ev.Kind())
		}
	}
	assert.Equal(t, []string{"ip", "arp", "ip"}, kinds)
	assert.True(t, p.Pending())

	p.Reset()
	assert.False(t, p.Pending())
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry(patterns.Default())

	ev, err := r.Dispatch(event.RawLine{Source: event.Sys, Text: `{"a":1}`})
	require.NoError(t, err)
	assert.Equal(t, event.Sys, ev.Source())

	ev, err = r.Dispatch(event.RawLine{Source: event.Fs, Text: "12:00:01.000 close 0.000512 /usr/bin/foo.123"})
	require.NoError(t, err)
	assert.Equal(t, event.Fs, ev.Source())

	ev, err = r.Dispatch(event.RawLine{Source: event.Net, Text: arpLine})
	require.NoError(t, err)
	assert.Equal(t, event.Net, ev.Source())

	_, err = r.Dispatch(event.RawLine{Source: event.Net, Text: ipHeader})
	require.NoError(t, err)
	assert.True(t, r.Network().Pending())

	_, err = r.Dispatch(event.RawLine{Source: event.Source(0), Text: "x"})
	assert.ErrorIs(t, err, errors.ErrUnknownSource)
}
