// Package testgen generates unit tests for Python source files.
//
// LearnPatterns samples the existing test suite for its framework, imports
// and an example test. Generator asks the engine for one test per public
// function or method and extracts the code from the reply. Place writes a
// test next to its siblings under the test root, appending to an existing
// file unless a test with the same name is already defined there.
package testgen
