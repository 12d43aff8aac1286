package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/go-logr/logr"
	"github.com/mattn/go-shellwords"
)

var ErrEmptyCommand = errors.New("publish command is empty")

// Runner executes the command that builds and uploads
// a source package.
type Runner struct {
	args         []string
	noUploadFlag string

	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner parses a shell-style command line. The noUploadFlag
// is appended to the arguments unless the package is being
// uploaded.
func NewRunner(command, noUploadFlag string) (*Runner, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parsing publish command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Runner{
		args:         args,
		noUploadFlag: noUploadFlag,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	}, nil
}

// Args returns the command line that Run executes.
func (r *Runner) Args(upload bool) []string {
	args := append([]string{}, r.args...)
	if !upload && r.noUploadFlag != "" {
		args = append(args, r.noUploadFlag)
	}
	return args
}

// Run executes the command inside dir. The command failing to
// start or exiting with a non-zero code are both errors.
func (r *Runner) Run(ctx context.Context, dir string, upload bool) error {
	args := r.Args(upload)
	log := logr.FromContextOrDiscard(ctx).WithValues("dir", dir, "args", args)
	log.Info("publishing package")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Error(err, "publish command failed", "code", exitErr.ExitCode())
			return fmt.Errorf("%s exited with code %d", args[0], exitErr.ExitCode())
		}
		log.Error(err, "failed to run publish command")
		return fmt.Errorf("running %s: %w", args[0], err)
	}
	log.V(1).Info("published package")
	return nil
}
