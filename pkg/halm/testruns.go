package halm

import (
	"context"
	"fmt"
	"net/http"
)

// TestRunSet names the test run set generated runs are filed under.
type TestRunSet struct {
	Label string `json:"label"`
}

// Variant expands generation across the values of a test variant, one run
// per selected menu item.
type Variant struct {
	Label         string     `json:"label"`
	MenuItemArray []MenuItem `json:"menuItemArray"`
}

// GenerateTestRunsRequest asks the server to generate test runs from test
// cases. EventsData is applied to every generated run, e.g. a PassEvent.
type GenerateTestRunsRequest struct {
	TestCaseIDs []int       `json:"testCaseIDs"`
	TestRunSet  *TestRunSet `json:"testRunSet,omitempty"`
	Variants    []Variant   `json:"variants,omitempty"`
	EventsData  []Event     `json:"eventsData,omitempty"`
}

// TestRun is one generated test run.
type TestRun struct {
	ID     int     `json:"id,omitempty"`
	Tag    string  `json:"tag,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// GeneratedTestRuns is the outcome of a generate call. On partial success
// the server still returns the runs it could generate and lists the
// failures in Errors.
type GeneratedTestRuns struct {
	TestRuns []TestRun     `json:"testRuns"`
	Errors   []ErrorDetail `json:"errors,omitempty"`

	StatusCode int `json:"-"`
}

// Partial reports whether the server generated only part of the request.
func (g *GeneratedTestRuns) Partial() bool {
	return g.StatusCode == http.StatusPartialContent || len(g.Errors) > 0
}

// GenerateTestRuns generates test runs from test cases. The two success
// statuses are 201, everything generated, and 206, partial success with the
// failures listed in the result's Errors.
func (c *Client) GenerateTestRuns(ctx context.Context, project string, req GenerateTestRunsRequest) (*GeneratedTestRuns, error) {
	var out GeneratedTestRuns
	res, err := c.send(ctx, opTestRunsGenerate, http.MethodPost, projectResource(project, "testruns/generate"), req, &out)
	if err != nil {
		return nil, err
	}
	out.StatusCode = res.StatusCode
	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusPartialContent {
		return &out, fmt.Errorf("unexpected status code %d generating test runs", res.StatusCode)
	}
	return &out, nil
}
