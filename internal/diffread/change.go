package diffread

import (
	"fmt"
	"strings"
)

// ChangeKind classifies a changed file.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Deleted  ChangeKind = "deleted"
	Renamed  ChangeKind = "renamed"
)

// Code returns the single-letter git status code.
func (k ChangeKind) Code() string {
	switch k {
	case Added:
		return "A"
	case Deleted:
		return "D"
	case Renamed:
		return "R"
	default:
		return "M"
	}
}

// Change is one changed file in a change set.
type Change struct {
	Path      string     `json:"path"`
	Kind      ChangeKind `json:"kind"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Patch     string     `json:"patch"`
	OldPath   string     `json:"oldPath,omitempty"`
}

// Analyzable reports whether the changed file is Python source.
func (c Change) Analyzable() bool {
	return strings.HasSuffix(c.Path, ".py")
}

// Summary renders the counts as "+N/-M".
func (c Change) Summary() string {
	return fmt.Sprintf("+%d/-%d", c.Additions, c.Deletions)
}
