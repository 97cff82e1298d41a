package handlers

import (
	"fileforge/internal/app"
	"fileforge/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

// JobHandler exposes the background jobs for operators, mainly to replay the
// storage journal without waiting for the next scheduled run.
type JobHandler struct {
	Handler
	scheduler *services.SchedulerService
}

func NewJobHandler(app app.App, router fiber.Router) *JobHandler {
	log := logger.New("handlers").File("job_handler")
	return &JobHandler{
		scheduler: app.Services.Scheduler,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *JobHandler) Register() {
	jobs := h.router.Group("/jobs")

	jobs.Get("", h.listJobs)
	jobs.Post("/:name/trigger", h.triggerJob)
}

func (h *JobHandler) listJobs(c *fiber.Ctx) error {
	return sendResponse(c, fiber.StatusOK, "Jobs retrieved", fiber.Map{
		"running": h.scheduler.IsRunning(),
		"jobs":    h.scheduler.Jobs(),
	})
}

func (h *JobHandler) triggerJob(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("triggerJob")

	name := c.Params("name")
	if err := h.scheduler.TriggerJobByName(c.UserContext(), name); err != nil {
		return sendError(c, log, err, "Failed to trigger job")
	}

	log.Info("Job triggered", "job", name)
	return sendResponse(c, fiber.StatusAccepted, "Job triggered", fiber.Map{"job": name})
}
