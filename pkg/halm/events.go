package halm

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Event is a workflow event applied to an item, e.g. a Comment on an issue
// or a Pass on a test run. The server assigns the id.
type Event struct {
	ID     int     `json:"id,omitempty"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields,omitempty"`
}

// EventsData is the envelope the events resources read and write.
type EventsData struct {
	EventsData []Event `json:"eventsData"`
}

// CommentEvent builds a Comment workflow event with the given notes, dated
// at the given time.
func CommentEvent(notes string, at time.Time) Event {
	date := at.UTC().Format(time.RFC3339)
	return Event{
		Name: "Comment",
		Fields: []Field{
			{Label: "Notes", Type: FieldTypeString, String: &notes},
			{Label: "Date", Type: FieldTypeDateTime, DateTime: &date},
		},
	}
}

// PassEvent builds a Pass workflow event with the given notes. Generated
// test runs accept it through GenerateTestRunsRequest.EventsData.
func PassEvent(notes string) Event {
	return Event{
		Name: "Pass",
		Fields: []Field{
			{Label: "Notes", Type: FieldTypeString, String: &notes},
		},
	}
}

// AddIssueEvents posts workflow events to an issue and returns the created
// events with their server-assigned ids.
func (c *Client) AddIssueEvents(ctx context.Context, project string, issueID int, events ...Event) ([]Event, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("no events to add")
	}
	resource := projectResource(project, "issues/"+strconv.Itoa(issueID)+"/events")
	var out EventsData
	if _, err := c.send(ctx, opIssueEvents, http.MethodPost, resource, EventsData{EventsData: events}, &out); err != nil {
		return nil, err
	}
	return out.EventsData, nil
}
