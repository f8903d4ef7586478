package v1

import (
	"net/http"

	"network20-backend/internal/delivery/http/response"
	"network20-backend/internal/domain"
	"network20-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobUC domain.JobUsecase
}

func NewJobHandler(group *gin.RouterGroup, jobUC domain.JobUsecase) {
	handler := &JobHandler{jobUC: jobUC}

	jobs := group.Group("/jobs")
	{
		jobs.GET("", handler.List)
		jobs.POST("", handler.Create)
		jobs.GET("/:id", handler.GetDetails)
		jobs.PATCH("/:id", handler.Update)
		jobs.DELETE("/:id", handler.Delete)
	}
}

// ListJobs godoc
// @Summary      List active jobs
// @Description  Newest first. Jobs live only on the hosted backend; local mode answers 503.
// @Tags         jobs
// @Produce      json
// @Param        q    query     string  false  "Case-insensitive search over company, title, location and description"
// @Success      200  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var jobs []domain.Job
	var err error
	if q := c.Query("q"); q != "" {
		jobs, err = h.jobUC.SearchJobs(ctx, q)
	} else {
		jobs, err = h.jobUC.ListJobs(ctx)
	}
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Jobs retrieved", jobs)
}

// GetJob godoc
// @Summary      Get a job
// @Tags         jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id} [get]
func (h *JobHandler) GetDetails(c *gin.Context) {
	job, err := h.jobUC.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if job == nil {
		c.Error(apperror.NotFound("Job not found"))
		return
	}

	response.Success(c, http.StatusOK, "Job retrieved", job)
}

// CreateJob godoc
// @Summary      Post a job
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        job  body      domain.JobInsert  true  "Job JSON"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /jobs [post]
// @Security     BearerAuth
func (h *JobHandler) Create(c *gin.Context) {
	var req domain.JobInsert
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	job, err := h.jobUC.CreateJob(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Job created", job)
}

// UpdateJob godoc
// @Summary      Update a job
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id   path      string            true  "Job ID"
// @Param        job  body      domain.JobUpdate  true  "Fields to change"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id} [patch]
// @Security     BearerAuth
func (h *JobHandler) Update(c *gin.Context) {
	var req domain.JobUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	job, err := h.jobUC.UpdateJob(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}
	if job == nil {
		c.Error(apperror.NotFound("Job not found"))
		return
	}

	response.Success(c, http.StatusOK, "Job updated", job)
}

// DeleteJob godoc
// @Summary      Delete a job
// @Tags         jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id} [delete]
// @Security     BearerAuth
func (h *JobHandler) Delete(c *gin.Context) {
	removed, err := h.jobUC.DeleteJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if !removed {
		c.Error(apperror.NotFound("Job not found"))
		return
	}

	response.Success(c, http.StatusOK, "Job deleted", nil)
}
