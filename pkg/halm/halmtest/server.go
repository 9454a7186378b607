// Package halmtest provides an in-memory fake of the Helix ALM REST API for
// tests and local development. It speaks the same auth flows, envelopes and
// error bodies as the real server, backed by seeded sample data.
package halmtest

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/helix-alm-go/pkg"
	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm"
	"github.com/nimeshabuddhika/helix-alm-go/pkg/utils"
	"go.uber.org/zap"
)

// Server is the fake. It implements http.Handler, so tests can mount it on
// an httptest.Server and point a halm.Client at it.
type Server struct {
	logger *zap.Logger
	engine *gin.Engine

	mu          sync.Mutex
	users       map[string]string
	projects    map[string]*project
	tokens      map[string]string
	nextEventID int
}

type project struct {
	name        string
	issues      map[int]*halm.Issue
	events      map[int][]halm.Event
	testCases   map[int]string
	nextIssueID int
	nextRunID   int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithUser adds a login alongside the seeded one.
func WithUser(username, password string) Option {
	return func(s *Server) { s.users[username] = password }
}

// New builds a seeded fake server.
func New(opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		logger:   zap.NewNop(),
		users:    map[string]string{},
		projects: map[string]*project{},
		tokens:   map[string]string{},
	}
	s.seed()
	for _, opt := range opts {
		opt(s)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestID())
	s.engine = engine
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// Run serves the fake on addr until ctx is cancelled, then drains for up to
// five seconds.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("mock server started", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("mock server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestID echoes the caller's request id, or mints one, and propagates it
// in the response header.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Request.Header.Get(pkg.HeaderRequestId)
		if utils.IsEmpty(requestID) {
			requestID = uuid.New().String()
		}
		c.Set(pkg.RequestId, requestID)
		c.Writer.Header().Set(pkg.HeaderRequestId, requestID)
		c.Next()
	}
}

func (s *Server) routes() {
	s.engine.GET("/versions", s.getVersions)
	s.engine.GET("/projects", s.getProjects)
	s.engine.GET("/:project/token", s.getToken)
	s.engine.GET("/:project/issues", s.listIssues)
	s.engine.GET("/:project/issues/:id", s.getIssue)
	s.engine.PUT("/:project/issues/:id", s.putIssue)
	s.engine.POST("/:project/issues/:id/events", s.postIssueEvents)
	s.engine.POST("/:project/testruns/generate", s.generateTestRuns)
}

// AddUser registers a login.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// AddProject creates an empty project.
func (s *Server) AddProject(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addProject(name)
}

func (s *Server) addProject(name string) *project {
	p, ok := s.projects[name]
	if !ok {
		p = &project{
			name:      name,
			issues:    map[int]*halm.Issue{},
			events:    map[int][]halm.Event{},
			testCases: map[int]string{},
		}
		s.projects[name] = p
	}
	return p
}

// AddIssue stores an issue in the project and returns its id. An issue with
// a zero id gets the next free one.
func (s *Server) AddIssue(projectName string, issue halm.Issue) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.addProject(projectName)
	if issue.ID == 0 {
		p.nextIssueID++
		issue.ID = p.nextIssueID
	} else if issue.ID > p.nextIssueID {
		p.nextIssueID = issue.ID
	}
	p.issues[issue.ID] = &issue
	return issue.ID
}

// AddTestCase registers a test case id the generate resource accepts.
func (s *Server) AddTestCase(projectName string, id int, summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addProject(projectName).testCases[id] = summary
}

// Issue returns a copy of the stored issue for assertions.
func (s *Server) Issue(projectName string, id int) (halm.Issue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projects[projectName]
	if p == nil {
		return halm.Issue{}, false
	}
	issue := p.issues[id]
	if issue == nil {
		return halm.Issue{}, false
	}
	return *issue, true
}

// IssueEvents returns the events posted to an issue, in order.
func (s *Server) IssueEvents(projectName string, id int) []halm.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projects[projectName]
	if p == nil {
		return nil
	}
	return append([]halm.Event(nil), p.events[id]...)
}
