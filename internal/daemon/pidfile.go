package daemon

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/netxfw/netxlog/internal/utils/fileutil"
	"github.com/netxfw/netxlog/pkg/errors"
)

// managePidFile writes our PID to path. A PID file naming a live process
// means another collector is running; a stale one is replaced.
// managePidFile 写入 PID 文件；若文件指向存活进程则说明已有采集器在运行。
func managePidFile(fs afero.Fs, path string) error {
	existing, err := fileutil.ReadTrimmed(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %v", err)
	}
	if existing != "" {
		if pid, perr := strconv.Atoi(existing); perr == nil && processAlive(pid) {
			return fmt.Errorf("%w: PID file %s names running process %d", errors.ErrAlreadyRunning, path, pid)
		}
	}

	pid := os.Getpid()
	if err := fileutil.AtomicWriteFile(fs, path, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %v", err)
	}
	return nil
}

func removePidFile(fs afero.Fs, path string, log *zap.SugaredLogger) {
	if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("⚠️  Failed to remove PID file: %v", err)
	}
}

var processAlive = func(pid int) bool {
	if pid <= 0 || pid == os.Getpid() {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
