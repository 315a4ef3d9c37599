package parser

import (
	"strconv"

	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/patterns"
	"github.com/netxfw/netxlog/pkg/errors"
)

// FilesystemParser extracts syscall records from fs_usage wide output.
// FilesystemParser 从 fs_usage 宽格式输出中提取系统调用记录。
type FilesystemParser struct {
	tbl *patterns.Table
}

func NewFilesystemParser(tbl *patterns.Table) *FilesystemParser {
	return &FilesystemParser{tbl: tbl}
}

func (p *FilesystemParser) Parse(text string) (event.Event, error) {
	m := p.tbl.FsLine.FindStringSubmatch(text)
	if m == nil {
		return nil, errors.NewParseError(event.Fs.String(), "no match")
	}

	duration, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return nil, errors.NewParseError(event.Fs.String(), "bad duration "+m[3])
	}

	name := m[4]
	if name == "" || allDigits(name) {
		return nil, errors.NewParseError(event.Fs.String(), "bad process name "+name)
	}
	pid, err := strconv.ParseInt(m[5], 10, 32)
	if err != nil {
		return nil, errors.NewParseError(event.Fs.String(), "bad pid "+m[5])
	}

	// Heuristic: any token with a slash anywhere on the line counts as a path.
	paths := p.tbl.FsPath.FindAllString(text, -1)
	if paths == nil {
		paths = []string{}
	}

	return event.FsEvent{
		Time:        m[1],
		EventType:   m[2],
		Duration:    duration,
		ProcessName: name,
		Pid:         int32(pid),
		FilePaths:   paths,
	}, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
