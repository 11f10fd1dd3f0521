package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/ylingtech/updatewatch/internal/branding"
	"github.com/ylingtech/updatewatch/internal/updater"
	"github.com/ylingtech/updatewatch/internal/version"
)

// CommandReloader runs a shell command to switch the host to the new build.
// The descriptor is passed in UPDATEWATCH_VERSION, UPDATEWATCH_BUILD_HASH
// and UPDATEWATCH_BUILD_TIME.
type CommandReloader struct {
	Command string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Reload runs the command and waits for it to finish.
func (r CommandReloader) Reload(ctx context.Context, d version.Descriptor) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", r.Command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", r.Command)
	}
	cmd.Env = append(os.Environ(),
		branding.EnvVar("VERSION")+"="+d.Version,
		branding.EnvVar("BUILD_HASH")+"="+d.BuildHash,
		branding.EnvVar("BUILD_TIME")+"="+d.BuildTime,
	)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running reload command: %w", err)
	}
	return nil
}

// printReloader tells the user to reload by hand when no command is set.
type printReloader struct {
	out io.Writer
}

func (r printReloader) Reload(_ context.Context, d version.Descriptor) error {
	fmt.Fprintf(r.out, "Recorded %s as applied. Reload your application to pick it up.\n", d)
	return nil
}

func newReloader(command string, out io.Writer) updater.Reloader {
	if command == "" {
		return printReloader{out: out}
	}
	return CommandReloader{Command: command, Stdout: out, Stderr: out}
}
