package halm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ExpandFoundByRecords asks the issues resource to include the found by
// section, which is omitted by default.
const ExpandFoundByRecords = "foundByRecords"

// Issue is a Helix ALM issue. Members beyond the typed ones are preserved
// verbatim across decode/encode, so an issue fetched from the server can be
// modified and put back without losing data the client does not model.
type Issue struct {
	ID     int
	Tag    string
	Fields []Field

	FoundByRecords *FoundByRecords

	raw map[string]json.RawMessage
}

func (i *Issue) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*i = Issue{}
	take := func(key string, dst any) error {
		raw, ok := m[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return err
		}
		delete(m, key)
		return nil
	}
	if err := take("id", &i.ID); err != nil {
		return err
	}
	if err := take("tag", &i.Tag); err != nil {
		return err
	}
	if err := take("fields", &i.Fields); err != nil {
		return err
	}
	if err := take("foundByRecords", &i.FoundByRecords); err != nil {
		return err
	}
	if len(m) > 0 {
		i.raw = m
	}
	return nil
}

func (i Issue) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, len(i.raw)+4)
	for k, v := range i.raw {
		m[k] = v
	}
	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		m[key] = raw
		return nil
	}
	if i.ID != 0 {
		if err := put("id", i.ID); err != nil {
			return nil, err
		}
	}
	if i.Tag != "" {
		if err := put("tag", i.Tag); err != nil {
			return nil, err
		}
	}
	if i.Fields != nil {
		if err := put("fields", i.Fields); err != nil {
			return nil, err
		}
	}
	if i.FoundByRecords != nil {
		if err := put("foundByRecords", i.FoundByRecords); err != nil {
			return nil, err
		}
	}
	return json.Marshal(m)
}

// Field returns the issue field with the given label, or nil.
func (i *Issue) Field(label string) *Field {
	for idx := range i.Fields {
		if i.Fields[idx].Label == label {
			return &i.Fields[idx]
		}
	}
	return nil
}

// FoundByRecords is the expanded found by section of an issue. Existing
// records stay raw so they round-trip untouched when the issue is updated;
// only records this client appends are built from typed values.
type FoundByRecords struct {
	FoundByRecordsData []json.RawMessage `json:"foundByRecordsData"`
}

// FoundByRecord is a new found by entry. Dates use the server's dateTime
// format, RFC 3339.
type FoundByRecord struct {
	DateFound    string           `json:"dateFound,omitempty"`
	Description  *FormattedString `json:"description,omitempty"`
	FoundBy      *UserField       `json:"foundBy,omitempty"`
	VersionFound string           `json:"versionFound,omitempty"`
}

// IssueList is the envelope returned by the issues resource.
type IssueList struct {
	Issues []Issue `json:"issues"`
}

// Issues lists the issues of a project.
func (c *Client) Issues(ctx context.Context, project string) ([]Issue, error) {
	var out IssueList
	if _, err := c.send(ctx, opIssuesList, http.MethodGet, projectResource(project, "issues"), nil, &out); err != nil {
		return nil, err
	}
	return out.Issues, nil
}

// Issue fetches a single issue by id. Pass expansions such as
// ExpandFoundByRecords to include sections the server omits by default.
func (c *Client) Issue(ctx context.Context, project string, id int, expand ...string) (*Issue, error) {
	var out Issue
	if _, err := c.send(ctx, opIssueGet, http.MethodGet, issueResource(project, id, expand), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateIssue puts the issue back to the server. The issue must carry the id
// it was fetched with.
func (c *Client) UpdateIssue(ctx context.Context, project string, issue *Issue) error {
	if issue == nil || issue.ID <= 0 {
		return fmt.Errorf("issue has no id to update")
	}
	_, err := c.send(ctx, opIssueUpdate, http.MethodPut, issueResource(project, issue.ID, nil), issue, nil)
	return err
}

// AddFoundByRecord fetches the issue with its found by section expanded,
// appends the record and puts the issue back.
func (c *Client) AddFoundByRecord(ctx context.Context, project string, id int, record FoundByRecord) error {
	var issue Issue
	resource := issueResource(project, id, []string{ExpandFoundByRecords})
	if _, err := c.send(ctx, opIssueGet, http.MethodGet, resource, nil, &issue); err != nil {
		return err
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if issue.FoundByRecords == nil {
		issue.FoundByRecords = &FoundByRecords{}
	}
	issue.FoundByRecords.FoundByRecordsData = append(issue.FoundByRecords.FoundByRecordsData, raw)
	_, err = c.send(ctx, opIssueUpdate, http.MethodPut, resource, &issue, nil)
	return err
}

func issueResource(project string, id int, expand []string) string {
	resource := projectResource(project, "issues/"+strconv.Itoa(id))
	if len(expand) > 0 {
		resource += "?expand=" + strings.Join(expand, ",")
	}
	return resource
}
