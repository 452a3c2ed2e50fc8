// Package output renders review results and styled terminal messages.
//
// Four result formats are supported:
//   - text: the human-readable report (default)
//   - json: the result with issue counts and a run ID
//   - markdown: PR-comment-friendly, one collapsible section per severity
//   - sarif: SARIF v2.1.0 for code-scanning uploads
//
// Use [GetWriter] to obtain a [Writer] for a format, or [WriteToFile] to
// render straight to a path. [Console] prints the CLI's status lines,
// styled with lipgloss when attached to a terminal.
package output
