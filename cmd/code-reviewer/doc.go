// Code-reviewer is a CLI for reviewing Python changes and generating unit
// tests with LLM providers.
//
// It combines tree-sitter structural analysis of the changed files with the
// git diff, asks the configured provider for a structured review, and exits
// with a status suitable for CI gating and git hooks.
//
// Usage:
//
//	code-reviewer review                     # review working tree changes
//	code-reviewer review --staged            # review staged changes
//	code-reviewer review --commit <sha>      # review a specific commit
//	code-reviewer review --branch main..HEAD # review the diff between refs
//	code-reviewer generate-tests src/app.py  # generate tests for a file
//	code-reviewer status                     # show config and repository state
package main
