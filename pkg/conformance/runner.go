package conformance

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"miniplc0/pkg/compiler"
	"miniplc0/pkg/vm"
)

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Output     []int32
	Error      error // why the test failed
}

// Run compiles and executes one test case on a fresh analyser and VM.
func Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{Test: test, Skipped: true, SkipReason: reason}
	}

	res := TestResult{Test: test}
	expect := test.Test.Expect

	program, _, err := compiler.Compile(test.Test.Source)
	if err != nil {
		res.Error = checkCompileError(err, expect)
		res.Passed = res.Error == nil
		return res
	}
	if _, isCode := compiler.ParseErrorCode(expect.Error); isCode {
		res.Error = fmt.Errorf("expected compile error %s, compilation succeeded", expect.Error)
		return res
	}

	if expect.Listing != nil {
		got := make([]string, len(program))
		for i, in := range program {
			got[i] = in.String()
		}
		if !slices.Equal(got, expect.Listing) {
			res.Error = fmt.Errorf("listing: expected [%s], got [%s]",
				strings.Join(expect.Listing, ", "), strings.Join(got, ", "))
			return res
		}
	}

	var out vm.Recorder
	runErr := vm.Run(program, &out)
	res.Output = out.Values

	switch {
	case runErr != nil && expect.Error == "":
		res.Error = fmt.Errorf("unexpected runtime error: %w", runErr)
	case runErr != nil && vm.FaultName(runErr) != expect.Error:
		res.Error = fmt.Errorf("expected runtime error %s, got %v", expect.Error, runErr)
	case runErr == nil && expect.Error != "":
		res.Error = fmt.Errorf("expected runtime error %s, program completed", expect.Error)
	case !slices.Equal(out.Values, expect.Output):
		res.Error = fmt.Errorf("output: expected %v, got %v", expect.Output, out.Values)
	}
	res.Passed = res.Error == nil
	return res
}

func checkCompileError(err error, expect Expectation) error {
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		return fmt.Errorf("unexpected error: %w", err)
	}
	if expect.Error == "" {
		return fmt.Errorf("unexpected compile error: %w", err)
	}
	if ce.Code.String() != expect.Error {
		return fmt.Errorf("expected compile error %s, got %s (%v)", expect.Error, ce.Code, err)
	}
	if expect.Line != 0 && ce.Pos.Line+1 != expect.Line {
		return fmt.Errorf("expected error on line %d, got %d", expect.Line, ce.Pos.Line+1)
	}
	if expect.Column != 0 && ce.Pos.Column+1 != expect.Column {
		return fmt.Errorf("expected error at column %d, got %d", expect.Column, ce.Pos.Column+1)
	}
	return nil
}

// RunAll runs tests with at most jobs cases in flight and returns the
// results in input order. jobs <= 0 means GOMAXPROCS. Cases not started
// before ctx is cancelled are left as zero TestResults and ctx's error is
// returned.
func RunAll(ctx context.Context, tests []LoadedTest, jobs int) ([]TestResult, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]TestResult, len(tests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i := range tests {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Run(tests[i])
			return nil
		})
	}

	return results, g.Wait()
}

// Summary counts passed, failed and skipped results.
func Summary(results []TestResult) (passed, failed, skipped int) {
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Passed:
			passed++
		default:
			failed++
		}
	}
	return passed, failed, skipped
}
