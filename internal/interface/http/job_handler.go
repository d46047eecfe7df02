package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/job-tracker/internal/application"
	"github.com/oksasatya/job-tracker/internal/domain/entity"
	"github.com/oksasatya/job-tracker/pkg/helpers"
	"github.com/oksasatya/job-tracker/pkg/response"
	"github.com/oksasatya/job-tracker/pkg/validation"
)

type JobHandler struct {
	Svc            *application.JobService
	Logger         *logrus.Logger
	MaxUploadBytes int64
}

func NewJobHandler(svc *application.JobService, logger *logrus.Logger, maxUploadBytes int64) *JobHandler {
	return &JobHandler{Svc: svc, Logger: logger, MaxUploadBytes: maxUploadBytes}
}

type createJobForm struct {
	Company  string `form:"company" json:"company" binding:"required,max=200"`
	Position string `form:"position" json:"position" binding:"required,max=200"`
	Status   string `form:"status" json:"status" binding:"omitempty,jobstatus"`
	Source   string `form:"source" json:"source" binding:"omitempty,max=100"`
	Deadline string `form:"deadline" json:"deadline"`
	Notes    string `form:"notes" json:"notes" binding:"omitempty,max=5000"`
}

type updateJobForm struct {
	Company  string `form:"company" json:"company" binding:"omitempty,max=200"`
	Position string `form:"position" json:"position" binding:"omitempty,max=200"`
	Status   string `form:"status" json:"status" binding:"omitempty,jobstatus"`
	Source   string `form:"source" json:"source" binding:"omitempty,max=100"`
	Deadline string `form:"deadline" json:"deadline"`
	Notes    string `form:"notes" json:"notes" binding:"omitempty,max=5000"`
}

func parseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("deadline must be YYYY-MM-DD")
}

func toInput(company, position, status, source, deadline, notes string) (application.JobInput, error) {
	d, err := parseDeadline(deadline)
	if err != nil {
		return application.JobInput{}, err
	}
	return application.JobInput{Company: company, Position: position, Status: status, Source: source, Deadline: d, Notes: notes}, nil
}

// attachments opens the optional resume and jd uploads. The caller closes them.
func (h *JobHandler) attachments(c *gin.Context) ([]application.Attachment, []multipart.File, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil, nil
	}
	var (
		out    []application.Attachment
		opened []multipart.File
	)
	for _, field := range []string{application.AttachmentResume, application.AttachmentJD} {
		fh, err := c.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, opened, err
		}
		if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
			return nil, opened, fmt.Errorf("%s exceeds %d bytes", field, h.MaxUploadBytes)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, opened, err
		}
		opened = append(opened, f)
		out = append(out, application.Attachment{
			Field:       field,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return out, opened, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func (h *JobHandler) fail(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, application.ErrJobNotFound):
		response.Error[any](c, http.StatusNotFound, "Job not found", nil)
	case errors.Is(err, application.ErrInvalidJob), errors.Is(err, application.ErrUnsupportedFile):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	default:
		helpers.LogError(h.Logger, action+" failed", err, logrus.Fields{"user_id": c.GetString("userID")})
		response.Error[any](c, http.StatusInternalServerError, "Server error", nil)
	}
}

func (h *JobHandler) views(jobs []entity.Job) []application.JobView {
	out := make([]application.JobView, 0, len(jobs))
	for i := range jobs {
		out = append(out, h.Svc.View(&jobs[i]))
	}
	return out
}

// Create POST /api/jobs (multipart or JSON)
func (h *JobHandler) Create(c *gin.Context) {
	var form createJobForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error[any](c, http.StatusBadRequest, validation.FirstMessage(err), validation.ToDetails(err))
		return
	}
	in, err := toInput(form.Company, form.Position, form.Status, form.Source, form.Deadline, form.Notes)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	files, opened, err := h.attachments(c)
	defer closeAll(opened)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	j, err := h.Svc.Create(c.Request.Context(), c.GetString("userID"), in, files)
	if err != nil {
		h.fail(c, err, "create job")
		return
	}
	response.Success(c, http.StatusCreated, h.Svc.View(j), "Job created", nil)
}

// List GET /api/jobs
func (h *JobHandler) List(c *gin.Context) {
	jobs, err := h.Svc.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.fail(c, err, "list jobs")
		return
	}
	response.Success(c, http.StatusOK, h.views(jobs), "jobs", map[string]any{"count": len(jobs)})
}

// Get GET /api/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	j, err := h.Svc.Get(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.fail(c, err, "get job")
		return
	}
	response.Success(c, http.StatusOK, h.Svc.View(j), "job", nil)
}

// Update PUT /api/jobs/:id
func (h *JobHandler) Update(c *gin.Context) {
	var form updateJobForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error[any](c, http.StatusBadRequest, validation.FirstMessage(err), validation.ToDetails(err))
		return
	}
	in, err := toInput(form.Company, form.Position, form.Status, form.Source, form.Deadline, form.Notes)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	files, opened, err := h.attachments(c)
	defer closeAll(opened)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	j, err := h.Svc.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), in, files)
	if err != nil {
		h.fail(c, err, "update job")
		return
	}
	response.Success(c, http.StatusOK, h.Svc.View(j), "Job updated", nil)
}

// Delete DELETE /api/jobs/:id
func (h *JobHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		h.fail(c, err, "delete job")
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Job deleted", nil)
}

// Stats GET /api/jobs/stats
func (h *JobHandler) Stats(c *gin.Context) {
	counts, err := h.Svc.Stats(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.fail(c, err, "job stats")
		return
	}
	out := make(map[string]int, len(counts))
	total := 0
	for st, n := range counts {
		out[string(st)] = n
		total += n
	}
	response.Success(c, http.StatusOK, out, "job stats", map[string]any{"total": total})
}

// Search GET /api/jobs/search?q=
func (h *JobHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Svc.Search(c.Request.Context(), c.GetString("userID"), q, size)
	if err != nil {
		h.fail(c, err, "search jobs")
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}
