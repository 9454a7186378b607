package halmtest

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/helix-alm-go/pkg"
	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm"
)

// Error codes the fake emits. The real server uses the same camelCase style.
const (
	codeUnauthorized     = "unauthorized"
	codeProjectNotFound  = "projectNotFound"
	codeIssueNotFound    = "issueNotFound"
	codeTestCaseNotFound = "testCaseNotFound"
	codeInvalidRequest   = "invalidRequest"
)

// abortError writes a bare error body, the shape the real server uses for
// auth and routing failures.
func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, halm.ErrorDetail{
		Code:       code,
		StatusCode: status,
		Message:    message,
	})
}

// abortWrapped writes an {"error": {...}} body, the shape the real server
// uses for request validation failures.
func abortWrapped(c *gin.Context, detail halm.ErrorDetail) {
	c.AbortWithStatusJSON(detail.StatusCode, gin.H{"error": detail})
}

func authValue(c *gin.Context) (scheme, value string) {
	header := c.GetHeader(pkg.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return strings.ToLower(parts[0]), parts[1]
}

// checkBasic validates basic credentials against the registered users.
// Callers hold s.mu.
func (s *Server) checkBasic(c *gin.Context) bool {
	scheme, value := authValue(c)
	if scheme != "basic" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return false
	}
	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}
	stored, ok := s.users[username]
	return ok && stored == password
}

// authedProject resolves the project named in the path and enforces the
// bearer token issued for it. Callers hold s.mu.
func (s *Server) authedProject(c *gin.Context) (*project, bool) {
	name := c.Param("project")
	p := s.projects[name]
	if p == nil {
		abortError(c, http.StatusNotFound, codeProjectNotFound, fmt.Sprintf("Project %q was not found.", name))
		return nil, false
	}
	scheme, value := authValue(c)
	if scheme != "bearer" || s.tokens[value] != name {
		abortError(c, http.StatusUnauthorized, codeUnauthorized, "A valid access token is required.")
		return nil, false
	}
	return p, true
}

func (s *Server) getVersions(c *gin.Context) {
	c.JSON(http.StatusOK, halm.Versions{
		RESTAPIVersion: "1.1.0",
		ServerVersion:  "2025.1.0",
	})
}

func (s *Server) getProjects(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkBasic(c) {
		abortError(c, http.StatusUnauthorized, codeUnauthorized, "Invalid username or password.")
		return
	}
	names := make([]string, 0, len(s.projects))
	for name := range s.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	out := halm.ProjectList{Projects: make([]halm.Project, 0, len(names))}
	for _, name := range names {
		out.Projects = append(out.Projects, halm.Project{Name: name})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getToken(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkBasic(c) {
		abortError(c, http.StatusUnauthorized, codeUnauthorized, "Invalid username or password.")
		return
	}
	name := c.Param("project")
	if s.projects[name] == nil {
		abortError(c, http.StatusNotFound, codeProjectNotFound, fmt.Sprintf("Project %q was not found.", name))
		return
	}
	token := uuid.NewString()
	s.tokens[token] = name
	c.JSON(http.StatusOK, halm.AccessToken{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresOn:   time.Now().Add(time.Hour).Unix(),
	})
}

func (s *Server) listIssues(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.authedProject(c)
	if !ok {
		return
	}
	ids := make([]int, 0, len(p.issues))
	for id := range p.issues {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := halm.IssueList{Issues: make([]halm.Issue, 0, len(ids))}
	for _, id := range ids {
		view := *p.issues[id]
		view.FoundByRecords = nil
		out.Issues = append(out.Issues, view)
	}
	c.JSON(http.StatusOK, out)
}

func issueID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		abortError(c, http.StatusBadRequest, codeInvalidRequest, "Invalid issue id.")
		return 0, false
	}
	return id, true
}

func expandsFoundBy(c *gin.Context) bool {
	for _, expand := range strings.Split(c.Query("expand"), ",") {
		if strings.TrimSpace(expand) == halm.ExpandFoundByRecords {
			return true
		}
	}
	return false
}

func (s *Server) getIssue(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.authedProject(c)
	if !ok {
		return
	}
	id, ok := issueID(c)
	if !ok {
		return
	}
	issue := p.issues[id]
	if issue == nil {
		abortError(c, http.StatusNotFound, codeIssueNotFound, fmt.Sprintf("Issue %d was not found.", id))
		return
	}
	view := *issue
	if !expandsFoundBy(c) {
		view.FoundByRecords = nil
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) putIssue(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.authedProject(c)
	if !ok {
		return
	}
	id, ok := issueID(c)
	if !ok {
		return
	}
	stored := p.issues[id]
	if stored == nil {
		abortError(c, http.StatusNotFound, codeIssueNotFound, fmt.Sprintf("Issue %d was not found.", id))
		return
	}
	var in halm.Issue
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWrapped(c, halm.ErrorDetail{
			Code:       codeInvalidRequest,
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request body.",
		})
		return
	}
	if in.ID != 0 && in.ID != id {
		abortWrapped(c, halm.ErrorDetail{
			Code:             codeInvalidRequest,
			StatusCode:       http.StatusBadRequest,
			Message:          "Issue id does not match the resource.",
			ErrorElementPath: "/id",
		})
		return
	}
	in.ID = id
	// Sections absent from the body keep their stored value.
	if in.FoundByRecords == nil {
		in.FoundByRecords = stored.FoundByRecords
	}
	p.issues[id] = &in
	c.JSON(http.StatusOK, in)
}

func (s *Server) postIssueEvents(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.authedProject(c)
	if !ok {
		return
	}
	id, ok := issueID(c)
	if !ok {
		return
	}
	if p.issues[id] == nil {
		abortError(c, http.StatusNotFound, codeIssueNotFound, fmt.Sprintf("Issue %d was not found.", id))
		return
	}
	var in halm.EventsData
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWrapped(c, halm.ErrorDetail{
			Code:       codeInvalidRequest,
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request body.",
		})
		return
	}
	if len(in.EventsData) == 0 {
		abortWrapped(c, halm.ErrorDetail{
			Code:             codeInvalidRequest,
			StatusCode:       http.StatusBadRequest,
			Message:          "At least one event is required.",
			ErrorElementPath: "/eventsData",
		})
		return
	}
	for i, event := range in.EventsData {
		if strings.TrimSpace(event.Name) == "" {
			abortWrapped(c, halm.ErrorDetail{
				Code:             codeInvalidRequest,
				StatusCode:       http.StatusBadRequest,
				Message:          "Event name is required.",
				ErrorElementPath: fmt.Sprintf("/eventsData/%d/name", i),
			})
			return
		}
	}
	created := make([]halm.Event, 0, len(in.EventsData))
	for _, event := range in.EventsData {
		s.nextEventID++
		event.ID = s.nextEventID
		created = append(created, event)
	}
	p.events[id] = append(p.events[id], created...)
	c.JSON(http.StatusCreated, halm.EventsData{EventsData: created})
}

func (s *Server) generateTestRuns(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.authedProject(c)
	if !ok {
		return
	}
	var req halm.GenerateTestRunsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWrapped(c, halm.ErrorDetail{
			Code:       codeInvalidRequest,
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request body.",
		})
		return
	}
	if len(req.TestCaseIDs) == 0 {
		abortWrapped(c, halm.ErrorDetail{
			Code:             codeInvalidRequest,
			StatusCode:       http.StatusBadRequest,
			Message:          "At least one test case id is required.",
			ErrorElementPath: "/testCaseIDs",
		})
		return
	}

	combos := variantCombos(req.Variants)
	statusLabel := "Not Run"
	for _, event := range req.EventsData {
		if event.Name == "Pass" {
			statusLabel = "Passed"
		}
	}

	var runs []halm.TestRun
	var errs []halm.ErrorDetail
	for _, tcID := range req.TestCaseIDs {
		summary, ok := p.testCases[tcID]
		if !ok {
			errs = append(errs, halm.ErrorDetail{
				Code:       codeTestCaseNotFound,
				StatusCode: http.StatusNotFound,
				Message:    fmt.Sprintf("Test case %d was not found.", tcID),
			})
			continue
		}
		for _, combo := range combos {
			p.nextRunID++
			run := halm.TestRun{
				ID:  p.nextRunID,
				Tag: fmt.Sprintf("TR-%d", p.nextRunID),
				Fields: []halm.Field{
					{Label: "Summary", Type: halm.FieldTypeString, String: &summary},
					{Label: "Status", Type: halm.FieldTypeMenuItem, MenuItem: &halm.MenuItem{Label: statusLabel}},
				},
			}
			for _, pick := range combo {
				item := pick.item
				run.Fields = append(run.Fields, halm.Field{
					Label:    pick.label,
					Type:     halm.FieldTypeMenuItem,
					MenuItem: &item,
				})
			}
			runs = append(runs, run)
		}
	}

	status := http.StatusCreated
	if len(errs) > 0 {
		status = http.StatusPartialContent
	}
	c.JSON(status, halm.GeneratedTestRuns{TestRuns: runs, Errors: errs})
}

type variantPick struct {
	label string
	item  halm.MenuItem
}

// variantCombos builds the cross product of the variant menu selections. No
// variants means a single empty combination.
func variantCombos(variants []halm.Variant) [][]variantPick {
	combos := [][]variantPick{nil}
	for _, variant := range variants {
		if len(variant.MenuItemArray) == 0 {
			continue
		}
		var next [][]variantPick
		for _, combo := range combos {
			for _, item := range variant.MenuItemArray {
				extended := append(append([]variantPick(nil), combo...), variantPick{label: variant.Label, item: item})
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}
