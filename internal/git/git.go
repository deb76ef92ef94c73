package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Fixed messages for silent tasks. Callers see these instead of raw git output.
var (
	ErrCheckout           = errors.New("problem with git branch change")
	ErrClone              = errors.New("problem with project fetching from the git host")
	ErrMerge              = errors.New("problem with merging changes")
	ErrPush               = errors.New("problem with uploading to the git host")
	ErrCommit             = errors.New("problem with committing changes")
	ErrPull               = errors.New("problem with pulling changes")
	ErrUncommittedChanges = errors.New("you have uncommitted changes in your project, please commit and try again")
)

// Client defines the version-control operations used by the publish flow.
// Every method operates on the repository the client is bound to.
type Client interface {
	Checkout(branch string) error
	Clone(url, name string) error
	Merge(branch string) error
	Push(branch string) error
	Commit(file, message string) error
	CurrentBranch() (string, error)
	Status() error
	Pull(branch string) error
	Changed(file string) (bool, error)
	RemoteURL() string
}

// Result is the captured outcome of a command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner spawns git. Run inherits the standard streams, Output captures them.
type Runner interface {
	Run(dir string, args ...string) error
	Output(dir string, args ...string) (Result, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r *ExecRunner) Run(dir string, args ...string) error {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = orDefault(r.Stdout, os.Stdout)
	cmd.Stderr = orDefault(r.Stderr, os.Stderr)
	return cmd.Run()
}

// Output runs git and returns its output. A non-zero exit is reported through
// Result.ExitCode; the error is only set when git could not be started.
func (r *ExecRunner) Output(dir string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return res, nil
}

func orDefault(w io.Writer, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}

// RealClient implements Client for the repository rooted at Dir.
type RealClient struct {
	Dir     string
	GitHost string // known platform git host prefix, used by RemoteURL
	Runner  Runner
	Logf    func(format string, a ...any)
}

// NewClient returns a RealClient using real git commands.
func NewClient(dir, gitHost string) *RealClient {
	return &RealClient{Dir: dir, GitHost: gitHost, Runner: &ExecRunner{}}
}

func (c *RealClient) logf(format string, a ...any) {
	if c.Logf != nil {
		c.Logf(format, a...)
	}
}

// silent runs a task with inherited streams and maps any failure to fixed.
func (c *RealClient) silent(fixed error, args ...string) error {
	c.logf("git %s", strings.Join(args, " "))
	if err := c.Runner.Run(c.Dir, args...); err != nil {
		return fixed
	}
	return nil
}

func (c *RealClient) output(args ...string) (Result, error) {
	c.logf("git %s", strings.Join(args, " "))
	return c.Runner.Output(c.Dir, args...)
}

func (c *RealClient) Checkout(branch string) error {
	if branch == "" {
		branch = "master"
	}
	return c.silent(ErrCheckout, "checkout", branch)
}

// Clone clones url into name, or into the repository's default directory when
// name is empty. The clone is created inside Dir.
func (c *RealClient) Clone(url, name string) error {
	args := []string{"clone", url}
	if name != "" {
		args = append(args, name)
	}
	return c.silent(ErrClone, args...)
}

func (c *RealClient) Merge(branch string) error {
	if err := c.silent(ErrMerge, "merge", branch); err != nil {
		return fmt.Errorf("%w from %s branch", err, branch)
	}
	return nil
}

func (c *RealClient) Push(branch string) error {
	return c.silent(ErrPush, "push", "-u", "origin", branch)
}

// Commit stages file and commits it with message.
func (c *RealClient) Commit(file, message string) error {
	if err := c.silent(ErrCommit, "add", file); err != nil {
		return err
	}
	return c.silent(ErrCommit, "commit", "-m", message)
}

func (c *RealClient) CurrentBranch() (string, error) {
	res, err := c.output("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
		return "", errors.New(stderr)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("git rev-parse exited with code %d", res.ExitCode)
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (c *RealClient) Status() error {
	res, err := c.output("status")
	if err != nil {
		return err
	}
	return classifyStatus(res)
}

func (c *RealClient) Pull(branch string) error {
	res, err := c.output("pull", "origin", branch)
	if err != nil {
		return err
	}
	return classifyPull(res)
}

// Changed reports whether file is untracked or has uncommitted changes.
func (c *RealClient) Changed(file string) (bool, error) {
	res, err := c.output("status", "--porcelain", "--", file)
	if err != nil {
		return false, err
	}
	if res.ExitCode != 0 {
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			return false, errors.New(stderr)
		}
		return false, fmt.Errorf("git status exited with code %d", res.ExitCode)
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// RemoteURL returns the platform-hosted remote URL of the repository, or "".
func (c *RealClient) RemoteURL() string {
	return ReadRemoteURL(c.Dir, c.GitHost)
}

// classifyStatus succeeds only for a clean working tree.
func classifyStatus(res Result) error {
	if strings.Contains(res.Stdout, "nothing to commit") {
		return nil
	}
	if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
		return errors.New(stderr)
	}
	return ErrUncommittedChanges
}

// classifyPull treats a missing remote branch as success: the public branch
// does not exist remotely before the first pipeline publish.
func classifyPull(res Result) error {
	if res.ExitCode == 0 {
		return nil
	}
	combined := strings.ToLower(res.Stdout + "\n" + res.Stderr)
	if strings.Contains(combined, "couldn't find remote ref") {
		return nil
	}
	return ErrPull
}
