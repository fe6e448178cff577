package registry

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sidkik/portable-launcher/pkg/errors"
)

// Registry is the set of platform registry operations the launcher needs.
type Registry interface {
	// Exists returns whether `key` is present.
	Exists(key string) (bool, error)

	// Import applies a registry export file.
	Import(file string) error

	// Export writes `key` and its subkeys to `file`, overwriting it.
	Export(key, file string) error

	// Delete removes `key` and its subkeys.
	Delete(key string) error
}

// Mocked out for unit testing.
var runCommand = (*exec.Cmd).Run

// CommandError is returned when `reg` exits with a non-zero status.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (err CommandError) Error() string {
	msg := fmt.Sprintf("`reg %s` exited with status %d", strings.Join(err.Args, " "), err.ExitCode)
	if err.Stderr != "" {
		msg += ": " + err.Stderr
	}
	return msg
}

type commandRegistry struct {
	program string
}

// NewCommandRegistry returns a Registry backed by the Windows `reg` tool.
func NewCommandRegistry() Registry {
	return commandRegistry{program: "reg"}
}

// keyNotFoundMsg is printed by `reg query` for keys that don't exist.
const keyNotFoundMsg = "unable to find the specified registry key"

func (r commandRegistry) Exists(key string) (bool, error) {
	return queryResult(r.run("query", key))
}

// queryResult interprets the result of `reg query`. The command exits with 1
// for missing keys, but also for errors such as access denied, so only the
// not found message counts as a missing key.
func queryResult(err error) (bool, error) {
	if err == nil {
		return true, nil
	}

	var cmdErr CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 &&
		strings.Contains(strings.ToLower(cmdErr.Stderr), keyNotFoundMsg) {
		return false, nil
	}
	return false, err
}

func (r commandRegistry) Import(file string) error {
	return r.run("import", file)
}

func (r commandRegistry) Export(key, file string) error {
	return r.run("export", key, file, "/y")
}

func (r commandRegistry) Delete(key string) error {
	return r.run("delete", key, "/f")
}

func (r commandRegistry) run(args ...string) error {
	cmd := exec.Command(r.program, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := runCommand(cmd); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return CommandError{
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return errors.WithContext(err, fmt.Sprintf("run %s", r.program))
	}
	return nil
}
