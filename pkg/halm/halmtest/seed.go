package halmtest

import (
	"encoding/json"

	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm"
)

// Seeded sample data, mirroring a fresh server with the traditional
// template project.
const (
	SeedProject  = "Traditional Template"
	SeedUsername = "administrator"
	SeedPassword = ""
)

func strPtr(s string) *string { return &s }

func seedIssue(tag, summary, priority, status string) halm.Issue {
	return halm.Issue{
		Tag: tag,
		Fields: []halm.Field{
			{Label: "Summary", Type: halm.FieldTypeString, String: strPtr(summary)},
			{Label: "Priority", Type: halm.FieldTypeMenuItem, MenuItem: &halm.MenuItem{Label: priority}},
			{Label: "Status", Type: halm.FieldTypeMenuItem, MenuItem: &halm.MenuItem{Label: status}},
			{Label: "Found by", Type: halm.FieldTypeUser, User: &halm.UserField{Username: SeedUsername}},
		},
	}
}

func (s *Server) seed() {
	s.users[SeedUsername] = SeedPassword

	crash := seedIssue("BUG-1", "Crash when saving a report", "Must Fix", "Open")
	crash.FoundByRecords = &halm.FoundByRecords{
		FoundByRecordsData: []json.RawMessage{
			json.RawMessage(`{"dateFound":"2025-03-04T10:00:00Z","description":{"isFormatted":false,"text":"Seen during the smoke test."},"foundBy":{"username":"administrator"},"versionFound":"1.0"}`),
		},
	}

	s.AddIssue(SeedProject, crash)
	s.AddIssue(SeedProject, seedIssue("BUG-2", "Typo on the login screen", "Before Release", "Open"))
	s.AddIssue(SeedProject, seedIssue("BUG-3", "Export ignores the date filter", "Before Beta", "Fixed"))

	s.AddTestCase(SeedProject, 1, "Verify login with valid credentials")
	s.AddTestCase(SeedProject, 2, "Verify the password reset email")
}
