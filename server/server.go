// Package server reports training progress over http.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"nstep-dqn/types"
)

// Status is the snapshot served at /status
type Status struct {
	Environment string                `json:"environment"`
	Experiment  string                `json:"experiment,omitempty"`
	Iterations  int                   `json:"iterations"`
	Latest      *types.IterationStats `json:"latest,omitempty"`
}

// Server serves the status of the training run it observes. Iteration
// callbacks update the snapshot, http handlers read it.
type Server struct {
	Addr   string
	ctx    context.Context
	server *http.Server

	lock   *sync.Mutex
	status Status
}

func New(ctx context.Context, addr string, environment string) *Server {
	s := &Server{
		Addr: addr,
		ctx:  ctx,
		lock: new(sync.Mutex),
		status: Status{
			Environment: environment,
		},
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/status", s.handleStatus)
	r.GET("/healthz", handleHealth)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}

	return s
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.lock.Lock()
	status := s.status
	s.lock.Unlock()

	c.JSON(http.StatusOK, status)
}

// SetExperiment labels the snapshot with the experiment being trained
func (s *Server) SetExperiment(name string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.status.Experiment = name
	s.status.Iterations = 0
	s.status.Latest = nil
}

// Observe records the latest iteration, called from the trainer callback
func (s *Server) Observe(stats types.IterationStats) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.status.Iterations++
	s.status.Latest = &stats
}

func (s *Server) Start() {
	go func() {
		s.server.ListenAndServe()
	}()

	go func() {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.server.Shutdown(ctx)
}
