package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/filetools/internal/filegen"
	"github.com/tphakala/filetools/internal/logger"
)

// CreateFileResponse is returned when a generation job is accepted
type CreateFileResponse struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// CreateFile handles POST /api/v1/files. Validation, conflicts and the free-space
// check are answered synchronously; the write itself runs as a background job.
func (c *Controller) CreateFile(ctx echo.Context) error {
	var req filegen.Request
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	task, err := c.generator.Prepare(req)
	if err != nil {
		return c.HandleError(ctx, err, filegen.UserMessage(err), statusFor(err))
	}

	job := c.jobs.Create(task.Path())
	c.log.Info("File generation job accepted",
		logger.String("job_id", job.ID),
		logger.String("path", job.Path),
		logger.Int64("size_bytes", task.SizeBytes()))

	c.wg.Go(func() {
		c.runJob(job, task)
	})

	return ctx.JSON(http.StatusAccepted, CreateFileResponse{ID: job.ID, Path: job.Path})
}

func (c *Controller) runJob(job *Job, task *filegen.Task) {
	defer c.jobs.Finish(job)

	result, err := task.Run(c.ctx, job.setProgress)
	if err != nil {
		job.fail(err, filegen.UserMessage(err))
		c.log.Warn("File generation job failed",
			logger.String("job_id", job.ID),
			logger.Error(err))
		return
	}
	job.succeed(result.Bytes, result.Duration, filegen.UserMessage(nil))
}

// GetFile handles GET /api/v1/files/:id
func (c *Controller) GetFile(ctx echo.Context) error {
	id := ctx.Param("id")
	job, ok := c.jobs.Get(id)
	if !ok {
		return c.HandleError(ctx, nil, "Job not found", http.StatusNotFound)
	}
	return ctx.JSON(http.StatusOK, job.View())
}
