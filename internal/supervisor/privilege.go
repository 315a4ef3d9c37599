package supervisor

import (
	"golang.org/x/sys/unix"

	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/pkg/errors"
)

var geteuid = unix.Geteuid

// RequiresRoot reports whether capturing src needs an effective uid of 0.
func RequiresRoot(src event.Source) bool {
	return src == event.Fs || src == event.Net
}

// CheckPrivilege fails if any of sources needs root and the process is not root.
// It is checked once at startup.
// CheckPrivilege 在启动时检查一次权限。
func CheckPrivilege(sources []event.Source) error {
	if geteuid() == 0 {
		return nil
	}
	var denied []string
	for _, src := range sources {
		if RequiresRoot(src) {
			denied = append(denied, src.String())
		}
	}
	if len(denied) > 0 {
		return errors.NewPrivilegeError(denied)
	}
	return nil
}
