// Package cli wires together the Cobra command tree for the code-reviewer
// binary.
//
// It defines the root command and all subcommands (review, generate-tests,
// status, configure, init, config, hook, models, version), binds flags,
// reads configuration, invokes the reviewer and test generator, and returns
// deterministic exit codes for CI gating.
package cli
