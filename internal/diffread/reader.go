package diffread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dshills/codereviewer/internal/logging"
)

// Reader classifies change sets read from a Source.
type Reader struct {
	src Source
	log *slog.Logger
}

// NewReader wraps src.
func NewReader(src Source, log *slog.Logger) *Reader {
	return &Reader{src: src, log: logging.OrDiscard(log)}
}

// Open returns a Reader over the git repository containing root.
func Open(ctx context.Context, root string, log *slog.Logger) (*Reader, error) {
	src, err := OpenGit(ctx, root)
	if err != nil {
		return nil, err
	}
	return NewReader(src, log), nil
}

// Unstaged returns working tree changes not yet in the index.
func (r *Reader) Unstaged(ctx context.Context) ([]Change, error) {
	items, err := r.src.WorkingTree(ctx)
	if err != nil {
		return nil, err
	}
	return toChanges(items), nil
}

// Staged returns index changes against HEAD. On a repository without
// commits every indexed file is reported as added.
func (r *Reader) Staged(ctx context.Context) ([]Change, error) {
	items, err := r.src.Index(ctx)
	if errors.Is(err, ErrNoCommits) {
		r.log.Debug("no commits yet, reporting index as added files")
		return r.initialChanges(ctx)
	}
	if err != nil {
		return nil, err
	}
	return toChanges(items), nil
}

// Commit returns the changes introduced by sha.
func (r *Reader) Commit(ctx context.Context, sha string) ([]Change, error) {
	items, err := r.src.Commit(ctx, sha)
	if err != nil {
		return nil, err
	}
	return toChanges(items), nil
}

// Branch returns the changes between base and target. Empty arguments
// default to main and HEAD.
func (r *Reader) Branch(ctx context.Context, base, target string) ([]Change, error) {
	if base == "" {
		base = "main"
	}
	if target == "" {
		target = "HEAD"
	}
	items, err := r.src.Between(ctx, base, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get branch diff: %w", err)
	}
	return toChanges(items), nil
}

// Raw returns the unparsed diff text.
func (r *Reader) Raw(ctx context.Context, staged bool) (string, error) {
	return r.src.RawDiff(ctx, staged)
}

// RepositoryInfo describes the repository state.
func (r *Reader) RepositoryInfo(ctx context.Context) (Info, error) {
	return r.src.Info(ctx)
}

func (r *Reader) initialChanges(ctx context.Context) ([]Change, error) {
	paths, err := r.src.StagedPaths(ctx)
	if err != nil {
		return nil, err
	}
	changes := make([]Change, 0, len(paths))
	for _, p := range paths {
		patch := ""
		data, err := r.src.ReadWorkingFile(p)
		switch {
		case err != nil:
			r.log.Debug("unreadable staged file", "path", p, "error", err)
		case !utf8.Valid(data):
			r.log.Debug("staged file is not UTF-8", "path", p)
		default:
			patch = synthesizePatch(string(data))
		}
		changes = append(changes, Change{
			Path:      p,
			Kind:      Added,
			Additions: countLines(patch, '+'),
			Patch:     patch,
		})
	}
	return changes, nil
}

func synthesizePatch(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return ""
	}
	ls := strings.Split(content, "\n")
	for i, l := range ls {
		ls[i] = "+" + l
	}
	return strings.Join(ls, "\n")
}

func toChanges(items []Item) []Change {
	changes := make([]Change, 0, len(items))
	for _, it := range items {
		changes = append(changes, toChange(it))
	}
	return changes
}

func toChange(it Item) Change {
	c := Change{Kind: Modified, Path: it.BPath}
	switch {
	case it.NewFile:
		c.Kind = Added
	case it.DeletedFile:
		c.Kind = Deleted
	case it.Renamed:
		c.Kind = Renamed
		c.OldPath = it.APath
	}
	if c.Path == "" {
		c.Path = it.APath
	}
	if utf8.Valid(it.Patch) {
		c.Patch = string(it.Patch)
	}
	if it.Stat != nil {
		c.Additions = max(0, it.Stat.Additions)
		c.Deletions = max(0, it.Stat.Deletions)
	} else {
		c.Additions = countLines(c.Patch, '+')
		c.Deletions = countLines(c.Patch, '-')
	}
	return c
}

// countLines counts patch lines carrying marker. Triple-marker lines before
// the first hunk are file headers and are not counted.
func countLines(patch string, marker byte) int {
	header := strings.Repeat(string(marker), 3)
	inBody := false
	n := 0
	for _, l := range strings.Split(patch, "\n") {
		if strings.HasPrefix(l, "@@") {
			inBody = true
			continue
		}
		if len(l) == 0 || l[0] != marker {
			continue
		}
		if !inBody && strings.HasPrefix(l, header) {
			continue
		}
		n++
	}
	return n
}
