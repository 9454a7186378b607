package halmtest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm"
	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm/halmtest"
)

// startFake mounts the fake on an httptest server and returns a client
// authenticating with the seeded login.
func startFake(t *testing.T) (*halmtest.Server, *halm.Client) {
	t.Helper()
	fake := halmtest.New()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := halm.New(halm.Config{
		BaseURL:     srv.URL,
		Credentials: halm.BasicAuth{Username: halmtest.SeedUsername, Password: halmtest.SeedPassword},
		HTTPClient:  srv.Client(),
		MaxRetries:  -1,
	})
	require.NoError(t, err)
	return fake, client
}

// projectClient exchanges the basic credentials for a project token, the way
// every project-scoped call authenticates.
func projectClient(t *testing.T, client *halm.Client) *halm.Client {
	t.Helper()
	token, err := client.ProjectToken(context.Background(), halmtest.SeedProject)
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)
	return client.WithCredentials(token.Auth())
}

func TestFakeServer_Versions(t *testing.T) {
	_, client := startFake(t)

	// The versions resource answers without any credentials.
	versions, err := client.WithCredentials(nil).Versions(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, versions.RESTAPIVersion)
	assert.NotEmpty(t, versions.ServerVersion)
}

func TestFakeServer_ProjectList(t *testing.T) {
	_, client := startFake(t)

	projects, err := client.Projects(context.Background())

	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, halmtest.SeedProject, projects[0].Name)
}

func TestFakeServer_ProjectListRejectsBadPassword(t *testing.T) {
	_, client := startFake(t)
	bad := client.WithCredentials(halm.BasicAuth{Username: halmtest.SeedUsername, Password: "wrong"})

	_, err := bad.Projects(context.Background())

	apiErr, ok := halm.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "unauthorized", apiErr.Code)
}

func TestFakeServer_TokenForUnknownProject(t *testing.T) {
	_, client := startFake(t)

	_, err := client.ProjectToken(context.Background(), "No Such Project")

	apiErr, ok := halm.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "projectNotFound", apiErr.Code)
	assert.NotEmpty(t, apiErr.Message)
}

func TestFakeServer_TokenScopedToProject(t *testing.T) {
	fake, client := startFake(t)
	fake.AddProject("Other Project")
	scoped := projectClient(t, client)

	_, err := scoped.Issues(context.Background(), "Other Project")

	apiErr, ok := halm.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestFakeServer_ListIssues(t *testing.T) {
	_, client := startFake(t)
	scoped := projectClient(t, client)

	issues, err := scoped.Issues(context.Background(), halmtest.SeedProject)

	require.NoError(t, err)
	require.Len(t, issues, 3)
	assert.Equal(t, "BUG-1", issues[0].Tag)
	assert.Equal(t, "Crash when saving a report", halm.StringField(issues[0].Fields, "Summary"))
	// The found by section only rides along when expanded.
	assert.Nil(t, issues[0].FoundByRecords)
}

func TestFakeServer_GetIssueWithExpand(t *testing.T) {
	_, client := startFake(t)
	scoped := projectClient(t, client)

	plain, err := scoped.Issue(context.Background(), halmtest.SeedProject, 1)
	require.NoError(t, err)
	assert.Nil(t, plain.FoundByRecords)

	expanded, err := scoped.Issue(context.Background(), halmtest.SeedProject, 1, halm.ExpandFoundByRecords)
	require.NoError(t, err)
	require.NotNil(t, expanded.FoundByRecords)
	assert.Len(t, expanded.FoundByRecords.FoundByRecordsData, 1)
}

func TestFakeServer_GetMissingIssue(t *testing.T) {
	_, client := startFake(t)
	scoped := projectClient(t, client)

	_, err := scoped.Issue(context.Background(), halmtest.SeedProject, 99)

	apiErr, ok := halm.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "issueNotFound", apiErr.Code)
}

func TestFakeServer_UpdateIssueField(t *testing.T) {
	fake, client := startFake(t)
	scoped := projectClient(t, client)
	ctx := context.Background()

	issue, err := scoped.Issue(ctx, halmtest.SeedProject, 1)
	require.NoError(t, err)
	require.True(t, halm.SetFieldValue(issue.Fields, "Priority", "Before Beta"))

	require.NoError(t, scoped.UpdateIssue(ctx, halmtest.SeedProject, issue))

	stored, ok := fake.Issue(halmtest.SeedProject, 1)
	require.True(t, ok)
	assert.Equal(t, "Before Beta", halm.StringField(stored.Fields, "Priority"))
	// The update body had no found by section; the stored one survives.
	require.NotNil(t, stored.FoundByRecords)
	assert.Len(t, stored.FoundByRecords.FoundByRecordsData, 1)
}

func TestFakeServer_AddFoundByRecord(t *testing.T) {
	fake, client := startFake(t)
	scoped := projectClient(t, client)

	record := halm.FoundByRecord{
		DateFound:    time.Date(2025, 8, 25, 9, 30, 0, 0, time.UTC).Format(time.RFC3339),
		Description:  &halm.FormattedString{Text: "Reproduced on the nightly build."},
		FoundBy:      &halm.UserField{Username: halmtest.SeedUsername},
		VersionFound: "2.0",
	}
	require.NoError(t, scoped.AddFoundByRecord(context.Background(), halmtest.SeedProject, 1, record))

	stored, ok := fake.Issue(halmtest.SeedProject, 1)
	require.True(t, ok)
	require.NotNil(t, stored.FoundByRecords)
	require.Len(t, stored.FoundByRecords.FoundByRecordsData, 2)

	var got halm.FoundByRecord
	require.NoError(t, json.Unmarshal(stored.FoundByRecords.FoundByRecordsData[1], &got))
	assert.Equal(t, "2.0", got.VersionFound)
	assert.Equal(t, "Reproduced on the nightly build.", got.Description.Text)
}

func TestFakeServer_AddIssueEvents(t *testing.T) {
	fake, client := startFake(t)
	scoped := projectClient(t, client)

	created, err := scoped.AddIssueEvents(context.Background(), halmtest.SeedProject, 2,
		halm.CommentEvent("Looks like a regression.", time.Now()))

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.NotZero(t, created[0].ID)
	assert.Equal(t, "Comment", created[0].Name)

	events := fake.IssueEvents(halmtest.SeedProject, 2)
	require.Len(t, events, 1)
	assert.Equal(t, created[0].ID, events[0].ID)
}

func TestFakeServer_EventWithoutNameRejected(t *testing.T) {
	_, client := startFake(t)
	scoped := projectClient(t, client)

	_, err := scoped.AddIssueEvents(context.Background(), halmtest.SeedProject, 2,
		halm.Event{Fields: nil})

	apiErr, ok := halm.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "/eventsData/0/name", apiErr.ErrorElementPath)
}

func TestFakeServer_GenerateTestRuns(t *testing.T) {
	_, client := startFake(t)
	scoped := projectClient(t, client)

	result, err := scoped.GenerateTestRuns(context.Background(), halmtest.SeedProject, halm.GenerateTestRunsRequest{
		TestCaseIDs: []int{1, 2},
		TestRunSet:  &halm.TestRunSet{Label: "Sprint 12"},
		Variants: []halm.Variant{
			{Label: "Operating System", MenuItemArray: []halm.MenuItem{{Label: "Windows"}, {Label: "Linux"}}},
		},
		EventsData: []halm.Event{halm.PassEvent("Automated pass.")},
	})

	require.NoError(t, err)
	assert.False(t, result.Partial())
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	// two test cases across two variant values
	require.Len(t, result.TestRuns, 4)
	assert.NotEmpty(t, result.TestRuns[0].Tag)
	assert.Equal(t, "Passed", halm.StringField(result.TestRuns[0].Fields, "Status"))
	assert.Equal(t, "Windows", halm.StringField(result.TestRuns[0].Fields, "Operating System"))
}

func TestFakeServer_GenerateTestRunsPartial(t *testing.T) {
	_, client := startFake(t)
	scoped := projectClient(t, client)

	result, err := scoped.GenerateTestRuns(context.Background(), halmtest.SeedProject, halm.GenerateTestRunsRequest{
		TestCaseIDs: []int{1, 99},
	})

	require.NoError(t, err)
	assert.True(t, result.Partial())
	assert.Equal(t, http.StatusPartialContent, result.StatusCode)
	require.Len(t, result.TestRuns, 1)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "testCaseNotFound", result.Errors[0].Code)
	assert.Equal(t, http.StatusNotFound, result.Errors[0].StatusCode)
}

func TestFakeServer_GenerateTestRunsWithoutIDs(t *testing.T) {
	_, client := startFake(t)
	scoped := projectClient(t, client)

	_, err := scoped.GenerateTestRuns(context.Background(), halmtest.SeedProject, halm.GenerateTestRunsRequest{})

	apiErr, ok := halm.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "/testCaseIDs", apiErr.ErrorElementPath)
}
