package executor

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// terminateGrace is how long a child gets to exit after SIGTERM before
// the whole process group is killed.
const terminateGrace = 5 * time.Second

// Child is an owned keep-alive process with an explicit handle. It runs
// in its own process group so Terminate can reach grandchildren too.
type Child struct {
	cmd  *exec.Cmd
	done chan error
}

// Ensure Child implements domain.ChildProcess.
var _ domain.ChildProcess = (*Child)(nil)

// Ensure Client implements domain.ChildStarter.
var _ domain.ChildStarter = (*Client)(nil)

// Start launches command in dir as a detached process group. Output goes
// to the caller's terminal; the child is expected to stay alive until
// terminated.
func (c *Client) Start(dir, command string) (domain.ChildProcess, error) {
	// G204: the serve command comes from the user's own config.
	cmd := exec.Command("sh", "-c", command) //nolint:gosec
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start child process: %w", err)
	}

	child := &Child{
		cmd:  cmd,
		done: make(chan error, 1),
	}
	go func() { child.done <- cmd.Wait() }()
	return child, nil
}

// Terminate best-effort stops the child's process group: SIGTERM first,
// SIGKILL after a grace period. It never blocks indefinitely.
func (ch *Child) Terminate() error {
	pgid := -ch.cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
		if err == syscall.ESRCH {
			return nil // already gone
		}
		return fmt.Errorf("signal child process group: %w", err)
	}

	select {
	case <-ch.done:
		return nil
	case <-time.After(terminateGrace):
		_ = syscall.Kill(pgid, syscall.SIGKILL)
		<-ch.done
		return nil
	}
}
