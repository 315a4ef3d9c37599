// Package supervisor spawns, kills and reaps the diagnostic subprocesses.
//
// Every child runs in its own process group so a kill also reaches anything
// the tool forked. Wait is called exactly once per child; skipping it would
// leave a zombie behind.
package supervisor

import (
	stderrors "errors"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/netxfw/netxlog/pkg/errors"
)

// DefaultKillTimeout is how long a child gets after SIGTERM before SIGKILL.
const DefaultKillTimeout = 5 * time.Second

// Process is a running capture subprocess.
// Process 是一个正在运行的采集子进程。
type Process struct {
	Command Command

	cmd    *exec.Cmd
	stdout io.ReadCloser

	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Stdout is the child's output stream. It reaches EOF when the child exits.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Exited reports whether the child has been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// Kill sends SIGTERM to the child's process group.
func (p *Process) Kill() error {
	return p.signal(unix.SIGTERM)
}

func (p *Process) signal(sig unix.Signal) error {
	if p.Exited() {
		return nil
	}
	err := unix.Kill(-p.Pid(), sig)
	if err == unix.ESRCH {
		// already gone, Wait will collect it
		return nil
	}
	return err
}

// Wait reaps the child. Later calls return the first result.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		close(p.exited)
	})
	return p.waitErr
}

// Supervisor tracks every spawned child.
type Supervisor struct {
	log         *zap.SugaredLogger
	killTimeout time.Duration

	mu       sync.Mutex
	procs    []*Process
	escalate *time.Timer
}

func New(log *zap.SugaredLogger, killTimeout time.Duration) *Supervisor {
	if killTimeout <= 0 {
		killTimeout = DefaultKillTimeout
	}
	return &Supervisor{
		log:         log,
		killTimeout: killTimeout,
	}
}

// Spawn starts cmd with stdout piped. Errors wrap ErrSpawn.
// Spawn 启动命令并通过管道获取 stdout，错误包装为 ErrSpawn。
func (s *Supervisor) Spawn(c Command) (*Process, error) {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.NewSpawnError(c.String(), err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.NewSpawnError(c.String(), err)
	}

	p := &Process{
		Command: c,
		cmd:     cmd,
		stdout:  stdout,
		exited:  make(chan struct{}),
	}

	s.mu.Lock()
	s.procs = append(s.procs, p)
	s.mu.Unlock()

	s.log.Infof("🚀 Spawned %s for %s (pid %d)", c, c.Source, p.Pid())
	return p, nil
}

// Processes returns a snapshot of the tracked children.
func (s *Supervisor) Processes() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Process, len(s.procs))
	copy(out, s.procs)
	return out
}

// Reap waits for p. A non-zero exit status (including death by our own
// signal) is a successful reap; only a failing wait is an error.
func (s *Supervisor) Reap(p *Process) error {
	err := p.Wait()
	if err == nil {
		s.log.Debugf("Reaped %s (pid %d)", p.Command.Name, p.Pid())
		return nil
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		s.log.Debugf("Reaped %s (pid %d): %v", p.Command.Name, p.Pid(), exitErr)
		return nil
	}
	return errors.NewReapError(p.Command.Name, p.Pid(), err)
}

// KillAll sends SIGTERM to every child still running. This is the forcing
// action that unblocks readers parked in a read on the child's stdout.
// Children that ignore SIGTERM get SIGKILL once the kill timeout elapses,
// so a reader never stays parked on a child that refuses to exit.
// KillAll 向所有子进程发送 SIGTERM，超时后对仍在运行的子进程发送 SIGKILL。
func (s *Supervisor) KillAll() error {
	procs := s.Processes()
	var errs error
	for _, p := range procs {
		if err := p.Kill(); err != nil {
			errs = multierr.Append(errs, errors.NewReapError(p.Command.Name, p.Pid(), err))
		}
	}

	s.mu.Lock()
	if s.escalate == nil && len(procs) > 0 {
		s.escalate = time.AfterFunc(s.killTimeout, func() { s.forceKill(procs) })
	}
	s.mu.Unlock()
	return errs
}

// forceKill sends SIGKILL to every child in procs not yet reaped.
func (s *Supervisor) forceKill(procs []*Process) {
	for _, p := range procs {
		if p.Exited() {
			continue
		}
		s.log.Warnf("⚠️  %s (pid %d) ignored SIGTERM for %v, sending SIGKILL", p.Command.Name, p.Pid(), s.killTimeout)
		if err := p.signal(unix.SIGKILL); err != nil {
			s.log.Warnf("⚠️  %v", errors.NewReapError(p.Command.Name, p.Pid(), err))
		}
	}
}

// ReapAll waits for every child. Children that outlive the kill timeout are
// sent SIGKILL and waited again. Errors are aggregated, never fatal.
// ReapAll 等待所有子进程退出，超时则发送 SIGKILL。
func (s *Supervisor) ReapAll() error {
	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, p := range s.Processes() {
		wg.Add(1)
		go func(p *Process) {
			defer wg.Done()
			if err := s.reapWithTimeout(p); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(p)
	}
	wg.Wait()

	s.mu.Lock()
	if s.escalate != nil {
		s.escalate.Stop()
	}
	s.mu.Unlock()
	return errs
}

func (s *Supervisor) reapWithTimeout(p *Process) error {
	done := make(chan error, 1)
	go func() { done <- s.Reap(p) }()

	select {
	case err := <-done:
		return err
	case <-time.After(s.killTimeout):
	}

	s.log.Warnf("⚠️  %s (pid %d) still running after %v, sending SIGKILL", p.Command.Name, p.Pid(), s.killTimeout)
	if err := p.signal(unix.SIGKILL); err != nil {
		return errors.NewReapError(p.Command.Name, p.Pid(), err)
	}
	return <-done
}
