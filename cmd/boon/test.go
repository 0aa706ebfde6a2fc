package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// testCase is one `-- test: <name>` block parsed from a fixture file: an
// inline wireProgram, zero or more Test/advance directives to run between
// quiescence passes, and the expected JSON the root value must render as.
type testCase struct {
	name      string
	source    string
	advances  []uint64
	expectRaw string
	expectAt  int // not set by parseTestFile; --update rewriting matches cases by name
	file      string
}

func testCmd() *cobra.Command {
	var update bool
	cmd := &cobra.Command{
		Use:   "test <files...>",
		Short: "Run `-- test:` / `-- expect:` fixtures and report pass/fail",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			anyFail := false
			for _, path := range args {
				cases, err := parseTestFile(path)
				if err != nil {
					return fmt.Errorf("parse %s: %w", path, err)
				}
				results, failed := runTestCases(cases)
				if failed {
					anyFail = true
				}
				renderTestReport(path, results)
				if update {
					if err := updateExpectations(path, cases, results); err != nil {
						return fmt.Errorf("update %s: %w", path, err)
					}
				}
			}
			if anyFail && !update {
				return fmt.Errorf("one or more tests failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&update, "update", false, "rewrite `-- expect:` blocks with actual output instead of failing")
	return cmd
}

type testResult struct {
	name   string
	pass   bool
	detail string
	actual string
}

func runTestCases(cases []testCase) ([]testResult, bool) {
	anyFail := false
	results := make([]testResult, 0, len(cases))
	for _, tc := range cases {
		res := runOneTestCase(tc)
		if !res.pass {
			anyFail = true
		}
		results = append(results, res)
	}
	return results, anyFail
}

func runOneTestCase(tc testCase) testResult {
	engine, err := buildEngine()
	if err != nil {
		return testResult{name: tc.name, detail: err.Error()}
	}
	compiler := newJSONCompiler()
	program, err := compiler.Compile(tc.source)
	if err != nil {
		return testResult{name: tc.name, detail: err.Error()}
	}
	root, ok := engine.Compile(program)
	if !ok {
		return testResult{name: tc.name, detail: "program has no root node"}
	}
	if res := engine.RunUntilQuiescent(1000); !res.Quiescent {
		return testResult{name: tc.name, detail: "did not reach quiescence"}
	}

	for _, ms := range tc.advances {
		clock := engine.Clock()
		fired := clock.AdvanceBy(ms)
		for _, slot := range fired {
			engine.FireTimer(slot)
		}
		if res := engine.RunUntilQuiescent(1000); !res.Quiescent {
			return testResult{name: tc.name, detail: fmt.Sprintf("did not reach quiescence after advance(%d)", ms)}
		}
	}

	actual, err := renderRoot(engine, root)
	if err != nil {
		return testResult{name: tc.name, detail: err.Error()}
	}
	return compareExpectation(tc, actual)
}

func compareExpectation(tc testCase, actual []byte) testResult {
	actualNorm, err := normalizeJSON(actual)
	if err != nil {
		return testResult{name: tc.name, detail: err.Error(), actual: string(actual)}
	}
	if tc.expectRaw == "" {
		return testResult{name: tc.name, detail: "no -- expect: block", actual: actualNorm}
	}
	expectNorm, err := normalizeJSON([]byte(tc.expectRaw))
	if err != nil {
		return testResult{name: tc.name, detail: "bad expect JSON: " + err.Error(), actual: actualNorm}
	}
	if diff := cmp.Diff(expectNorm, actualNorm); diff != "" {
		return testResult{name: tc.name, detail: diff, actual: actualNorm}
	}
	return testResult{name: tc.name, pass: true, actual: actualNorm}
}

func normalizeJSON(raw []byte) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func renderTestReport(file string, results []testResult) {
	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"Test", "Result", "Detail"})
	for _, r := range results {
		status := "PASS"
		if !r.pass {
			status = "FAIL"
		}
		table.Append([]string{r.name, status, r.detail})
	}
	fmt.Println(file)
	table.Render()
}

var (
	testMarker    = "-- test: "
	expectMarker  = "-- expect: "
	advancePrefix = "Test/advance(milliseconds: "
)

// parseTestFile splits path into testCase blocks. A block starts at a line
// beginning with "-- test: " (the rest of the line is the case name) and
// ends at the next "-- test: " line or EOF. Inside a block,
// Test/advance(...) directives and the "-- expect: " line are taken out;
// every other line, blank lines included, is accumulated as source.
func parseTestFile(path string) ([]testCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cases []testCase
	var cur *testCase
	var src strings.Builder

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, testMarker):
			if cur != nil {
				cur.source = src.String()
				cases = append(cases, *cur)
			}
			cur = &testCase{name: strings.TrimSpace(strings.TrimPrefix(line, testMarker)), file: path}
			src.Reset()
		case strings.HasPrefix(line, advancePrefix):
			if cur == nil {
				continue
			}
			rest := strings.TrimSuffix(strings.TrimPrefix(line, advancePrefix), ")")
			ms, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad advance directive %q: %w", line, err)
			}
			cur.advances = append(cur.advances, ms)
		case strings.HasPrefix(line, expectMarker):
			if cur == nil {
				continue
			}
			cur.expectRaw = strings.TrimPrefix(line, expectMarker)
		default:
			if cur != nil {
				src.WriteString(line)
				src.WriteString("\n")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		if cur.source == "" {
			cur.source = src.String()
		}
		cases = append(cases, *cur)
	}
	return cases, nil
}

// updateExpectations rewrites every "-- expect: " line in path with the
// corresponding result's actual rendering, for the `test --update` golden
// file workflow.
func updateExpectations(path string, cases []testCase, results []testResult) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")
	byName := make(map[string]string, len(results))
	for i, c := range cases {
		if i < len(results) {
			byName[c.name] = results[i].actual
		}
	}
	currentName := ""
	for i, line := range lines {
		if strings.HasPrefix(line, testMarker) {
			currentName = strings.TrimSpace(strings.TrimPrefix(line, testMarker))
			continue
		}
		if strings.HasPrefix(line, expectMarker) {
			if actual, ok := byName[currentName]; ok {
				lines[i] = expectMarker + actual
			}
		}
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}
