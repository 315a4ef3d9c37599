package supervisor

import (
	"strings"

	"github.com/netxfw/netxlog/internal/event"
)

// Command is the literal argument vector for one source. The parsers depend
// on the exact output format these flags produce, so they are not configurable.
// Command 是某个来源的固定参数向量。解析器依赖这些参数产生的输出格式，因此不可配置。
type Command struct {
	Source event.Source
	Name   string
	Args   []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandFor returns the capture command of src.
func CommandFor(src event.Source) (Command, bool) {
	switch src {
	case event.Sys:
		// newline-delimited JSON records
		return Command{Source: src, Name: "log", Args: []string{"stream", "--style", "ndjson", "--info"}}, true
	case event.Fs:
		// wide fixed-column syscall records
		return Command{Source: src, Name: "fs_usage", Args: []string{"-w", "-f", "filesys"}}, true
	case event.Net:
		// line buffered, numeric, verbose: IP packets take two lines, ARP one
		return Command{Source: src, Name: "tcpdump", Args: []string{"-i", "en0", "-l", "-n", "-v"}}, true
	default:
		return Command{}, false
	}
}
