// Package diffread turns version-control change sets into [Change] records.
//
// A [Source] is the boundary to the repository. [GitSource] shells out to git
// and parses its unified output with go-diff. A [Reader] applies the change
// classification rules on top of any Source: unstaged, staged, single commit
// and branch comparisons. Staged reads on a repository without commits fall
// back to reporting every indexed file as added.
package diffread
