package database

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

var (
	ErrTimeout       = errors.New("operation timed out")
	ErrMissingOutput = errors.New("dump output directory missing")
)

// Dumper exports a database into a directory.
type Dumper interface {
	GetName() string
	GetEngine() string
	// Tool is the executable the dumper shells out to.
	Tool() string
	Dump(ctx context.Context, outDir string) error
}

// Runner executes an external command, streaming its output to stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// CredentialsFunc resolves a username and password at dump time.
type CredentialsFunc func(ctx context.Context) (username, password string, err error)
