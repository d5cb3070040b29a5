// Package api implements the v1 JSON endpoints: units, volumes and background
// file generation jobs.
package api

import (
	"context"
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/filetools/internal/filegen"
	"github.com/tphakala/filetools/internal/logger"
	"github.com/tphakala/filetools/internal/monitor"
	"github.com/tphakala/filetools/internal/units"
)

// GetLogger returns the v1 API logger
func GetLogger() logger.Logger {
	return logger.Global().Module("api.v1")
}

// Snapshotter provides volume snapshots. *monitor.Poller implements it.
type Snapshotter interface {
	Latest() monitor.Snapshot
	Poll() monitor.Snapshot
}

// Controller manages the v1 API routes and the background jobs they start
type Controller struct {
	Echo  *echo.Echo
	Group *echo.Group

	generator   *filegen.Generator
	volumes     Snapshotter
	jobs        *JobStore
	displayUnit units.Unit
	sweepEvery  time.Duration
	log         logger.Logger

	// ctx outlives requests; generation jobs run on it
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithJobTTL sets how long finished jobs stay queryable
func WithJobTTL(ttl time.Duration) Option {
	return func(c *Controller) {
		if ttl > 0 {
			c.jobs = NewJobStore(ttl)
			c.sweepEvery = ttl
		}
	}
}

// WithDisplayUnit sets the unit used when a request does not name one
func WithDisplayUnit(u units.Unit) Option {
	return func(c *Controller) {
		c.displayUnit = u
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates the controller and registers its routes under /api/v1
func New(e *echo.Echo, gen *filegen.Generator, vols Snapshotter, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		Echo:        e,
		generator:   gen,
		volumes:     vols,
		displayUnit: units.GB,
		ctx:         ctx,
		cancel:      cancel,
	}
	WithJobTTL(time.Hour)(c)
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = GetLogger()
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()

	c.wg.Go(c.sweepJobs)
	return c
}

func (c *Controller) initRoutes() {
	c.Group.GET("/units", c.GetUnits)
	c.Group.GET("/volumes", c.GetVolumes)
	c.Group.POST("/files", c.CreateFile)
	c.Group.GET("/files/:id", c.GetFile)
}

// sweepJobs evicts expired jobs until Shutdown
func (c *Controller) sweepJobs() {
	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.jobs.Sweep()
		case <-c.ctx.Done():
			return
		}
	}
}

// Shutdown cancels running jobs and waits for them to finish. Canceled jobs leave
// their partial files in place.
func (c *Controller) Shutdown() {
	c.cancel()
	c.wg.Wait()
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID returns a short random identifier that ties a response to its log line
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs err and writes an error response
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
		logger.Error(err),
	}
	if code >= http.StatusInternalServerError {
		c.log.Error("API error", fields...)
	} else {
		c.log.Warn("API error", fields...)
	}

	return ctx.JSON(code, resp)
}
