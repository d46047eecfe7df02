package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/job-tracker/internal/domain/entity"
	repo "github.com/oksasatya/job-tracker/internal/domain/repository"
	"github.com/oksasatya/job-tracker/pkg/helpers"
)

var ErrUnsupportedFile = errors.New("only .pdf, .doc and .docx files are allowed")

var allowedAttachmentExt = map[string]bool{".pdf": true, ".doc": true, ".docx": true}

const (
	AttachmentResume = "resume"
	AttachmentJD     = "jd"
)

type JobInput struct {
	Company  string
	Position string
	Status   string
	Source   string
	Deadline *time.Time
	Notes    string
}

// Attachment is an uploaded file for one of the job's attachment slots.
type Attachment struct {
	Field       string // AttachmentResume or AttachmentJD
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// JobView is a job as returned to clients, with attachment URLs resolved.
type JobView struct {
	ID        string     `json:"id"`
	Company   string     `json:"company"`
	Position  string     `json:"position"`
	Status    string     `json:"status"`
	Source    string     `json:"source"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	ResumeURL string     `json:"resume_url,omitempty"`
	JDURL     string     `json:"jd_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type JobService struct {
	Repo        repo.JobRepository
	Blobs       repo.BlobStore
	ES          *elasticsearch.Client
	ESJobsIndex string
	Logger      *logrus.Logger
}

func NewJobService(jobs repo.JobRepository, blobs repo.BlobStore, es *elasticsearch.Client, esJobsIndex string, logger *logrus.Logger) *JobService {
	return &JobService{Repo: jobs, Blobs: blobs, ES: es, ESJobsIndex: esJobsIndex, Logger: logger}
}

func (s *JobService) View(j *entity.Job) JobView {
	v := JobView{
		ID:        j.ID,
		Company:   j.Company,
		Position:  j.Position,
		Status:    string(j.Status),
		Source:    j.Source,
		Deadline:  j.Deadline,
		Notes:     j.Notes,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if s.Blobs != nil {
		if j.ResumeKey != "" {
			v.ResumeURL = s.Blobs.URL(j.ResumeKey)
		}
		if j.JDKey != "" {
			v.JDURL = s.Blobs.URL(j.JDKey)
		}
	}
	return v
}

func applyInput(j *entity.Job, in JobInput) error {
	if c := strings.TrimSpace(in.Company); c != "" {
		j.Company = c
	}
	if p := strings.TrimSpace(in.Position); p != "" {
		j.Position = p
	}
	if in.Status != "" {
		st := entity.JobStatus(in.Status)
		if !st.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidJob, in.Status)
		}
		j.Status = st
	}
	if in.Source != "" {
		j.Source = strings.TrimSpace(in.Source)
	}
	if in.Deadline != nil {
		j.Deadline = in.Deadline
	}
	if in.Notes != "" {
		j.Notes = in.Notes
	}
	if j.Company == "" || j.Position == "" {
		return fmt.Errorf("%w: company and position are required", ErrInvalidJob)
	}
	return nil
}

// Create stores a new job with optional attachments. Status defaults to Applied
// and source to LinkedIn.
func (s *JobService) Create(ctx context.Context, userID string, in JobInput, files []Attachment) (*entity.Job, error) {
	j := &entity.Job{UserID: userID, Status: entity.JobStatusApplied, Source: entity.DefaultJobSource}
	if err := applyInput(j, in); err != nil {
		return nil, err
	}
	uploaded, err := s.upload(ctx, userID, j, files)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, j); err != nil {
		s.removeBlobs(ctx, uploaded)
		return nil, err
	}
	_ = s.index(ctx, j)
	return j, nil
}

func (s *JobService) List(ctx context.Context, userID string) ([]entity.Job, error) {
	return s.Repo.ListByUser(ctx, userID)
}

func (s *JobService) Get(ctx context.Context, userID, id string) (*entity.Job, error) {
	j, err := s.Repo.GetByID(ctx, userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return j, err
}

// Update applies non-empty fields and replaces any attachment that was re-uploaded.
func (s *JobService) Update(ctx context.Context, userID, id string, in JobInput, files []Attachment) (*entity.Job, error) {
	j, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	oldResume, oldJD := j.ResumeKey, j.JDKey
	if err := applyInput(j, in); err != nil {
		return nil, err
	}
	uploaded, err := s.upload(ctx, userID, j, files)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, j); err != nil {
		s.removeBlobs(ctx, uploaded)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var stale []string
	if oldResume != "" && oldResume != j.ResumeKey {
		stale = append(stale, oldResume)
	}
	if oldJD != "" && oldJD != j.JDKey {
		stale = append(stale, oldJD)
	}
	s.removeBlobs(ctx, stale)
	_ = s.index(ctx, j)
	return j, nil
}

func (s *JobService) Delete(ctx context.Context, userID, id string) error {
	j, err := s.Repo.Delete(ctx, userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrJobNotFound
	}
	if err != nil {
		return err
	}
	s.removeBlobs(ctx, []string{j.ResumeKey, j.JDKey})
	s.unindex(ctx, j.ID)
	return nil
}

// Stats returns the number of jobs per status, every status included.
func (s *JobService) Stats(ctx context.Context, userID string) (map[entity.JobStatus]int, error) {
	return s.Repo.CountByStatus(ctx, userID)
}

func (s *JobService) upload(ctx context.Context, userID string, j *entity.Job, files []Attachment) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	for _, f := range files {
		if !allowedAttachmentExt[strings.ToLower(filepath.Ext(f.Filename))] {
			return nil, ErrUnsupportedFile
		}
	}
	if s.Blobs == nil {
		return nil, ErrStorageMissing
	}

	var uploaded []string
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Filename))
		key := path.Join("attachments", userID, f.Field, uuid.NewString()+ext)
		if err := s.Blobs.Put(ctx, key, f.ContentType, f.Body, f.Size); err != nil {
			s.removeBlobs(ctx, uploaded)
			return nil, fmt.Errorf("upload %s: %w", f.Field, err)
		}
		uploaded = append(uploaded, key)
		switch f.Field {
		case AttachmentResume:
			j.ResumeKey = key
		case AttachmentJD:
			j.JDKey = key
		}
	}
	return uploaded, nil
}

func (s *JobService) removeBlobs(ctx context.Context, keys []string) {
	if s.Blobs == nil {
		return
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.Blobs.Delete(context.WithoutCancel(ctx), k); err != nil {
			helpers.LogError(s.Logger, "delete attachment failed", err, logrus.Fields{"key": k})
		}
	}
}

func (s *JobService) index(ctx context.Context, j *entity.Job) error {
	if s.ES == nil || s.ESJobsIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         j.ID,
		"user_id":    j.UserID,
		"company":    j.Company,
		"position":   j.Position,
		"status":     string(j.Status),
		"source":     j.Source,
		"notes":      j.Notes,
		"created_at": j.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": j.UpdatedAt.Format(time.RFC3339Nano),
	}
	if j.Deadline != nil {
		doc["deadline"] = j.Deadline.Format(time.RFC3339)
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESJobsIndex, DocumentID: j.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("job_id", j.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("job_id", j.ID).Warn("es index response error")
	}
	return nil
}

func (s *JobService) unindex(ctx context.Context, id string) {
	if s.ES == nil || s.ESJobsIndex == "" {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := esapi.DeleteRequest{Index: s.ESJobsIndex, DocumentID: id}.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("job_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search runs a full text query over the caller's jobs.
func (s *JobService) Search(ctx context.Context, userID, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESJobsIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"user_id": userID}},
				},
				"must": []any{
					map[string]any{
						"multi_match": map[string]any{
							"query":  q,
							"fields": []string{"company^2", "position^2", "notes", "source"},
						},
					},
				},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESJobsIndex), s.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
