package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/codereviewer/internal/testgen"
)

var (
	flagFunction  string
	flagTestDir   string
	flagTestOut   string
	flagDryRun    bool
	flagOverwrite bool
	flagFramework string
)

var generateTestsCmd = &cobra.Command{
	Use:   "generate-tests <file>",
	Short: "Generate tests for a Python file",
	Long: `Generate tests for Python files using structural analysis.

Analyzes the code structure and existing test patterns to generate
test cases for every public function and method, or for one function.`,
	Example: `  code-reviewer generate-tests src/mymodule.py
  code-reviewer generate-tests src/mymodule.py --function my_function
  code-reviewer generate-tests src/mymodule.py --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerateTests,
}

func runGenerateTests(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("invalid value for file: path %q does not exist", path)
	}

	overrides := make(map[string]string)
	if flagTestDir != "" {
		overrides["testDir"] = flagTestDir
	}
	if flagFramework != "" {
		overrides["testFramework"] = flagFramework
	}
	cfg, log, err := loadConfig(cmd, overrides)
	if err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		fail(cmd, ExitRuntimeError, "Configuration Error: %v", err)
		return nil
	}

	engine, err := newEngine(cfg, log)
	if err != nil {
		fail(cmd, ExitRuntimeError, "Error generating tests: %v", err)
		return nil
	}
	gen := testgen.NewGenerator(engine, promptLoader(cfg), nil, testgen.Options{
		Framework:  cfg.TestFramework,
		Docstrings: cfg.Docstrings,
	}, log)

	out := console(cmd.OutOrStdout())
	out.Heading("🧪 Generating tests for: " + path)

	ctx := cmd.Context()
	var tests []testgen.GeneratedTest
	if flagFunction != "" {
		out.Info("Targeting function: " + flagFunction)
		t, err := gen.GenerateForFunction(ctx, path, flagFunction, cfg.TestDir)
		if err != nil {
			if errors.Is(err, testgen.ErrFunctionNotFound) {
				fail(cmd, ExitRuntimeError, "Function '%s' not found in %s", flagFunction, path)
				return nil
			}
			fail(cmd, ExitRuntimeError, "Error generating tests: %v", err)
			return nil
		}
		tests = append(tests, t)
	} else {
		out.Info("Analyzing all testable functions...")
		tests, err = gen.GenerateForFile(ctx, path, cfg.TestDir)
		if err != nil {
			fail(cmd, ExitRuntimeError, "Error generating tests: %v", err)
			return nil
		}
	}

	if len(tests) == 0 {
		out.Warn("No testable functions found.")
		return nil
	}

	out.Print("")
	out.Success(fmt.Sprintf("Generated %d test(s)", len(tests)))

	placer := testgen.NewPlacer(flagOverwrite)
	for i, t := range tests {
		if flagTestOut != "" {
			t = t.WithPath(flagTestOut)
		}
		out.Print("\n" + strings.Repeat("-", 80))
		out.Heading(fmt.Sprintf("Test #%d: %s", i+1, t.Name))
		out.Print("Testing: " + t.TestedFunction)
		out.Print("Framework: " + t.Framework)
		out.Print("Target file: " + t.FilePath)
		out.Print("\n" + t.Code)

		if flagDryRun {
			continue
		}
		outcome, err := placer.Place(t)
		if err != nil {
			fail(cmd, ExitRuntimeError, "Error generating tests: %v", err)
			return nil
		}
		if outcome == testgen.AlreadyPresent {
			out.Warn("Test already exists in: " + t.FilePath)
		} else {
			out.Success("Written to: " + t.FilePath)
		}
	}

	if flagDryRun {
		out.Print("")
		out.Info("Dry run - no files were modified")
	}
	return nil
}

func init() {
	generateTestsCmd.Flags().StringVar(&flagFunction, "function", "", "Generate test for specific function")
	generateTestsCmd.Flags().StringVar(&flagTestDir, "test-dir", "", "Test directory (default: tests)")
	generateTestsCmd.Flags().StringVar(&flagTestOut, "output", "", "Output file path (overrides default)")
	generateTestsCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Show generated tests without writing")
	generateTestsCmd.Flags().BoolVar(&flagOverwrite, "overwrite", false, "Replace existing test files instead of appending")
	generateTestsCmd.Flags().StringVar(&flagFramework, "framework", "", "Fallback test framework (pytest, unittest)")
}
