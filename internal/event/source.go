package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/netxfw/netxlog/pkg/errors"
)

// Source identifies which diagnostic feed a line came from.
// Source 标识一行数据来自哪个诊断源。
type Source uint8

const (
	Sys Source = iota + 1
	Fs
	Net
)

// Sources lists every known source in a stable order.
var Sources = []Source{Sys, Fs, Net}

func (s Source) String() string {
	switch s {
	case Sys:
		return "system"
	case Fs:
		return "filesystem"
	case Net:
		return "network"
	default:
		return fmt.Sprintf("source(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	return s == Sys || s == Fs || s == Net
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", errors.ErrUnknownSource, uint8(s))
	}
	return []byte(s.String()), nil
}

// ParseSource accepts both the long and the short source names.
// ParseSource 同时接受长名称和短名称。
func ParseSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "system", "sys":
		return Sys, nil
	case "filesystem", "fs":
		return Fs, nil
	case "network", "net":
		return Net, nil
	default:
		return 0, fmt.Errorf("%w: %q", errors.ErrUnknownSource, name)
	}
}

// RawLine is one line of subprocess output tagged with its source.
// RawLine 是带有来源标签的一行子进程输出。
type RawLine struct {
	Source Source
	Text   string
	ReadAt time.Time
}
