package launch

import (
	"context"
	"errors"
	"os/exec"
)

// Command is a resolved process invocation.
type Command struct {
	ButtonID string
	Path     string
	Args     []string
	Dir      string
}

// Process is a started game process.
type Process interface {
	PID() int
	// Wait blocks until the process exits and returns its exit code.
	Wait() (int, error)
}

// Starter starts processes.
type Starter interface {
	Start(ctx context.Context, cmd Command) (Process, error)
}

// StarterFunc adapts a function to Starter.
type StarterFunc func(ctx context.Context, cmd Command) (Process, error)

func (fn StarterFunc) Start(ctx context.Context, cmd Command) (Process, error) {
	return fn(ctx, cmd)
}

// ExecStarter starts commands with os/exec. The process is detached from ctx
// so it outlives the request that started it.
type ExecStarter struct{}

func (ExecStarter) Start(_ context.Context, cmd Command) (Process, error) {
	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	if err := c.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: c}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return p.cmd.ProcessState.ExitCode(), nil
}
