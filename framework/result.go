package framework

import (
	"fmt"
	"strings"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

// PrintResults prints a summary of the test run, listing every failed test.
func PrintResults(results Results) {
	if results.OK() {
		fmt.Printf("All tests passed (%d)\n", len(results.Tests))
		return
	}
	fmt.Printf("FAILED TESTS (%d of %d):\n", len(results.Failures), len(results.Tests))
	for _, f := range results.Failures {
		fmt.Printf("* %s\n", f.TestID)
		for _, e := range f.Errors {
			for _, line := range strings.Split(e.Error(), "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
	}
}
