package diffread

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// GitSource reads change sets by running the git binary.
type GitSource struct {
	root string
}

// OpenGit locates the repository containing dir.
func OpenGit(ctx context.Context, dir string) (*GitSource, error) {
	out, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRepository, dir, err)
	}
	return &GitSource{root: strings.TrimSpace(out)}, nil
}

// Root returns the repository top-level directory.
func (g *GitSource) Root() string { return g.root }

func (g *GitSource) WorkingTree(ctx context.Context) ([]Item, error) {
	return g.diff(ctx, "diff", "-M")
}

func (g *GitSource) Index(ctx context.Context) ([]Item, error) {
	if _, err := g.git(ctx, "rev-parse", "--verify", "-q", "HEAD"); err != nil {
		// --verify -q exits 1 without output when HEAD is unborn.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, ErrNoCommits
		}
		return nil, fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	return g.diff(ctx, "diff", "--cached", "-M")
}

func (g *GitSource) Commit(ctx context.Context, ref string) ([]Item, error) {
	sha, err := g.resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, ref)
	}
	parents, err := g.git(ctx, "rev-list", "--parents", "-n", "1", sha)
	if err != nil {
		return nil, fmt.Errorf("git rev-list %s: %w", sha, err)
	}
	fields := strings.Fields(parents)
	if len(fields) > 1 {
		return g.diff(ctx, "diff", "-M", fields[1], sha)
	}
	return g.diff(ctx, "show", "--format=", "--patch", "-M", sha)
}

func (g *GitSource) Between(ctx context.Context, base, target string) ([]Item, error) {
	from, err := g.resolve(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("unknown revision %q: %w", base, err)
	}
	to, err := g.resolve(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("unknown revision %q: %w", target, err)
	}
	return g.diff(ctx, "diff", "-M", from, to)
}

// resolve turns a user-supplied ref into a commit id. Refs that look like
// options are rejected before they reach git.
func (g *GitSource) resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "-") {
		return "", fmt.Errorf("invalid ref %q", ref)
	}
	out, err := g.git(ctx, "rev-parse", "--verify", "-q", ref+"^{commit}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *GitSource) StagedPaths(ctx context.Context) ([]string, error) {
	out, err := g.git(ctx, "ls-files")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}
	return lines(out), nil
}

func (g *GitSource) ReadWorkingFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(g.root, filepath.FromSlash(path)))
}

func (g *GitSource) RawDiff(ctx context.Context, staged bool) (string, error) {
	args := []string{"diff"}
	if staged {
		args = append(args, "--cached")
	}
	out, err := g.git(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to get git diff: %w", err)
	}
	return out, nil
}

func (g *GitSource) Info(ctx context.Context) (Info, error) {
	info := Info{Root: g.root, Branch: "detached HEAD", Untracked: []string{}}
	if b, err := g.git(ctx, "symbolic-ref", "--short", "-q", "HEAD"); err == nil && strings.TrimSpace(b) != "" {
		info.Branch = strings.TrimSpace(b)
	}
	status, err := g.git(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return Info{}, fmt.Errorf("git status: %w", err)
	}
	info.Dirty = strings.TrimSpace(status) != ""
	untracked, err := g.git(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return Info{}, fmt.Errorf("git ls-files: %w", err)
	}
	info.Untracked = append(info.Untracked, lines(untracked)...)
	if head, err := g.git(ctx, "rev-parse", "--short=8", "HEAD"); err == nil {
		info.Head = strings.TrimSpace(head)
	}
	return info, nil
}

func (g *GitSource) git(ctx context.Context, args ...string) (string, error) {
	return gitOutput(ctx, g.root, args...)
}

func (g *GitSource) diff(ctx context.Context, args ...string) ([]Item, error) {
	out, err := g.git(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return parseItems([]byte(out))
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-c", "core.quotePath=false"}, args...)...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

func lines(out string) []string {
	var res []string
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			res = append(res, l)
		}
	}
	return res
}

// parseItems converts unified git output into Items.
func parseItems(out []byte) ([]Item, error) {
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, nil
	}
	fds, err := godiff.ParseMultiFileDiff(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}
	items := make([]Item, 0, len(fds))
	for _, fd := range fds {
		items = append(items, toItem(fd))
	}
	return items, nil
}

func toItem(fd *godiff.FileDiff) Item {
	it := Item{
		APath: cleanPath(fd.OrigName),
		BPath: cleanPath(fd.NewName),
	}
	binary := false
	for _, ext := range fd.Extended {
		switch {
		case strings.HasPrefix(ext, "diff --git "):
			a, b := splitGitHeader(strings.TrimPrefix(ext, "diff --git "))
			if it.APath == "" {
				it.APath = a
			}
			if it.BPath == "" {
				it.BPath = b
			}
		case strings.HasPrefix(ext, "new file mode"):
			it.NewFile = true
		case strings.HasPrefix(ext, "deleted file mode"):
			it.DeletedFile = true
		case strings.HasPrefix(ext, "rename from "):
			it.Renamed = true
			it.APath = strings.TrimPrefix(ext, "rename from ")
		case strings.HasPrefix(ext, "rename to "):
			it.Renamed = true
			it.BPath = strings.TrimPrefix(ext, "rename to ")
		case strings.HasPrefix(ext, "Binary files"), strings.HasPrefix(ext, "GIT binary patch"):
			binary = true
		}
	}
	if it.NewFile {
		it.APath = it.BPath
	}
	if it.DeletedFile {
		it.BPath = it.APath
	}

	stat := &Stat{}
	for _, h := range fd.Hunks {
		for _, l := range bytes.Split(h.Body, []byte("\n")) {
			if len(l) == 0 {
				continue
			}
			switch l[0] {
			case '+':
				stat.Additions++
			case '-':
				stat.Deletions++
			}
		}
	}
	it.Stat = stat

	if binary || len(fd.Hunks) == 0 {
		return it
	}
	body, err := godiff.PrintHunks(fd.Hunks)
	if err != nil {
		return it
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", fd.OrigName, fd.NewName)
	b.Write(body)
	it.Patch = b.Bytes()
	return it
}

// cleanPath removes the a/ or b/ prefix from git diff paths.
func cleanPath(path string) string {
	if path == "" || path == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}

func splitGitHeader(rest string) (string, string) {
	i := strings.Index(rest, " b/")
	if i < 0 || !strings.HasPrefix(rest, "a/") {
		return "", ""
	}
	return rest[2:i], rest[i+3:]
}
