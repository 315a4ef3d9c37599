package errors

import (
	"errors"
	"fmt"
)

var (
	ErrPrivilege      = errors.New("elevated privilege required")
	ErrUsage          = errors.New("invalid usage")
	ErrSpawn          = errors.New("failed to spawn subprocess")
	ErrParse          = errors.New("line did not parse")
	ErrQueueClosed    = errors.New("event queue closed")
	ErrReap           = errors.New("failed to reap subprocess")
	ErrUnknownSource  = errors.New("unknown source")
	ErrConfigNotFound = errors.New("config not found")
	ErrConfigInvalid  = errors.New("invalid configuration")
	ErrSinkTimeout    = errors.New("sink send timeout")
	ErrSinkClosed     = errors.New("sink closed")
	ErrAlreadyRunning = errors.New("collector already running")
)

func NewPrivilegeError(sources []string) error {
	return fmt.Errorf("%w: capturing %v requires root, rerun with sudo", ErrPrivilege, sources)
}

func NewUsageError(reason string) error {
	return fmt.Errorf("%w: %s", ErrUsage, reason)
}

func NewSpawnError(command string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSpawn, command, err)
}

func NewParseError(source string, reason string) error {
	return fmt.Errorf("%w: source=%s: %s", ErrParse, source, reason)
}

func NewReapError(command string, pid int, err error) error {
	return fmt.Errorf("%w: %s (pid %d): %v", ErrReap, command, pid, err)
}

func NewConfigError(field string, value interface{}) error {
	return fmt.Errorf("%w: field=%s value=%v", ErrConfigInvalid, field, value)
}

func NewSinkTimeoutError(sink string) error {
	return fmt.Errorf("%w: %s", ErrSinkTimeout, sink)
}
