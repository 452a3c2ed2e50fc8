package diffread

import (
	"context"
	"errors"
)

var (
	// ErrInvalidRepository means the directory is not inside a repository.
	ErrInvalidRepository = errors.New("not a valid git repository")
	// ErrNoCommits means the repository has no HEAD commit yet.
	ErrNoCommits = errors.New("repository has no commits")
	// ErrCommitNotFound means a commit reference did not resolve.
	ErrCommitNotFound = errors.New("commit not found")
)

// Stat holds native per-file line counts.
type Stat struct {
	Additions int
	Deletions int
}

// Item is one provider-native diff entry.
type Item struct {
	NewFile     bool
	DeletedFile bool
	Renamed     bool
	APath       string
	BPath       string
	Patch       []byte
	// Stat is nil when the source cannot count lines itself.
	Stat *Stat
}

// Info describes the state of a repository.
type Info struct {
	Root      string   `json:"root"`
	Branch    string   `json:"branch"`
	Dirty     bool     `json:"dirty"`
	Untracked []string `json:"untracked"`
	Head      string   `json:"head,omitempty"`
}

// Source is the version-control boundary.
type Source interface {
	// WorkingTree compares the working tree with the index.
	WorkingTree(ctx context.Context) ([]Item, error)
	// Index compares the index with HEAD. It returns ErrNoCommits on an
	// empty repository.
	Index(ctx context.Context) ([]Item, error)
	// Commit compares a commit with its first parent, or with nothing for a
	// root commit. It returns ErrCommitNotFound for unknown references.
	Commit(ctx context.Context, ref string) ([]Item, error)
	Between(ctx context.Context, base, target string) ([]Item, error)
	StagedPaths(ctx context.Context) ([]string, error)
	ReadWorkingFile(path string) ([]byte, error)
	RawDiff(ctx context.Context, staged bool) (string, error)
	Info(ctx context.Context) (Info, error)
}
