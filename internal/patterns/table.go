// Package patterns holds the precompiled regular expressions shared by every
// parser. A Table is built once before the pipeline starts and is read-only
// afterwards; *regexp.Regexp is safe for concurrent use.
package patterns

import (
	"fmt"
	"regexp"
	"sync"
)

// Expressions used by the parsers. Kept as source so they show up in docs and tests.
// 解析器使用的表达式，保留源码形式以便文档和测试引用。
const (
	// time, event type, duration, [dir/]name.pid
	FsLineExpr = `^\s*(\d{1,2}:\d{2}:\d{2}(?:\.\d+)?)\s+(\S+)\s+(?:.*\s)?(\d+\.\d+)(?:\s+W)?\s+(?:\S*/)?([^\s/]+)\.(\d+)\s*$`
	FsPathExpr = `\S*/\S*`

	NetTimestampExpr = `^\s*((?:\d{4}-\d{2}-\d{2}\s+)?\d{1,2}:\d{2}:\d{2}(?:\.\d+)?)`
	NetLengthExpr    = `\blength (\d+)`

	ArpMarkerExpr = `\bARP\b`
	ArpTypeExpr   = `\b(Request|Reply)\b`
	ArpWhoHasExpr = `\bwho-has ([^\s,]+)`
	ArpTellExpr   = `\btell ([^\s,]+)`

	// IPv4 spans a header line and a detail line under -v.
	IPMarkerExpr = `(?:^|\s)IP(?:\s|$)`
	IPProtoExpr  = `\b(?:proto|next-header) (\w+)`
	IPDetailExpr = `^\s*(\S+) > ([^\s:]+):.*\blength (\d+)`

	// IPv6 fits on one line: header fields, then src > dst with colons in the addresses.
	IP6MarkerExpr  = `(?:^|\s)IP6(?:\s|$)`
	IP6AddrsExpr   = `\s(\S+) > (\S+?):(?:\s|$)`
	IP6PayloadExpr = `\bpayload length: (\d+)`
)

// Table is the immutable set of compiled patterns. Fields must not be reassigned.
type Table struct {
	FsLine *regexp.Regexp
	FsPath *regexp.Regexp

	NetTimestamp *regexp.Regexp
	NetLength    *regexp.Regexp

	ArpMarker *regexp.Regexp
	ArpType   *regexp.Regexp
	ArpWhoHas *regexp.Regexp
	ArpTell   *regexp.Regexp

	IPMarker *regexp.Regexp
	IPProto  *regexp.Regexp
	IPDetail *regexp.Regexp

	IP6Marker  *regexp.Regexp
	IP6Addrs   *regexp.Regexp
	IP6Payload *regexp.Regexp
}

// New compiles every pattern.
// New 编译所有模式。
func New() (*Table, error) {
	t := &Table{}
	targets := []struct {
		dst  **regexp.Regexp
		name string
		expr string
	}{
		{&t.FsLine, "fs_line", FsLineExpr},
		{&t.FsPath, "fs_path", FsPathExpr},
		{&t.NetTimestamp, "net_timestamp", NetTimestampExpr},
		{&t.NetLength, "net_length", NetLengthExpr},
		{&t.ArpMarker, "arp_marker", ArpMarkerExpr},
		{&t.ArpType, "arp_type", ArpTypeExpr},
		{&t.ArpWhoHas, "arp_who_has", ArpWhoHasExpr},
		{&t.ArpTell, "arp_tell", ArpTellExpr},
		{&t.IPMarker, "ip_marker", IPMarkerExpr},
		{&t.IPProto, "ip_proto", IPProtoExpr},
		{&t.IPDetail, "ip_detail", IPDetailExpr},
		{&t.IP6Marker, "ip6_marker", IP6MarkerExpr},
		{&t.IP6Addrs, "ip6_addrs", IP6AddrsExpr},
		{&t.IP6Payload, "ip6_payload", IP6PayloadExpr},
	}
	for _, tg := range targets {
		re, err := regexp.Compile(tg.expr)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %s: %w", tg.name, err)
		}
		*tg.dst = re
	}
	return t, nil
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
})

// Default returns the process-wide table, compiling it on first use.
func Default() *Table {
	return defaultTable()
}

// Submatch returns capture group n of the first match of re in s, or "".
func Submatch(re *regexp.Regexp, s string, n int) string {
	m := re.FindStringSubmatch(s)
	if len(m) <= n {
		return ""
	}
	return m[n]
}
