// Package review turns a change set into a review result.
//
// A Reviewer composes a markdown brief from the diff (ComposeDiffContext)
// and from structural analysis of the changed Python files
// (ComposeStructureContext), prefixes the strictness-specific prompt and
// asks the engine to call the submit_review tool (ReviewTool).
//
// Validate interprets the reply in two tiers. A submit_review tool call
// whose input is a JSON object is used as is; otherwise the reply text is
// searched for a ```json fence, then a bare fence, then decoded whole. A
// reply that cannot be decoded yields a minimal result with score 50 and the
// first 500 characters of the reply as its summary. Unknown severities and
// categories are mapped to the UNCLASSIFIED and unclassified buckets.
//
// Engine failures never escape Review: they become zero-score results whose
// summary names the failure (network, rate limit, authentication, status).
//
// Rules packs (rules.go) add focus areas and required checks to the brief
// and force severities per category. They load from JSON, YAML or TOML.
package review
