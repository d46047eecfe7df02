package application

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/job-tracker/internal/domain/entity"
	repo "github.com/oksasatya/job-tracker/internal/domain/repository"
	"github.com/oksasatya/job-tracker/pkg/helpers"
)

type memJobs struct {
	mu   sync.Mutex
	seq  int
	jobs map[string]*entity.Job
}

func newMemJobs() *memJobs { return &memJobs{jobs: map[string]*entity.Job{}} }

func (m *memJobs) Create(_ context.Context, j *entity.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	j.ID = "j" + strconv.Itoa(m.seq)
	j.CreatedAt = time.Unix(int64(m.seq), 0)
	j.UpdatedAt = j.CreatedAt
	c := *j
	m.jobs[j.ID] = &c
	return nil
}

func (m *memJobs) GetByID(_ context.Context, userID, id string) (*entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.UserID != userID {
		return nil, repo.ErrNotFound
	}
	c := *j
	return &c, nil
}

func (m *memJobs) ListByUser(_ context.Context, userID string) ([]entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Job, 0)
	for _, j := range m.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (m *memJobs) Update(_ context.Context, j *entity.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[j.ID]
	if !ok || cur.UserID != j.UserID {
		return repo.ErrNotFound
	}
	c := *j
	m.jobs[j.ID] = &c
	return nil
}

func (m *memJobs) Delete(_ context.Context, userID, id string) (*entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.UserID != userID {
		return nil, repo.ErrNotFound
	}
	delete(m.jobs, id)
	return j, nil
}

func (m *memJobs) CountByStatus(_ context.Context, userID string) (map[entity.JobStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[entity.JobStatus]int{}
	for _, s := range entity.JobStatuses {
		out[s] = 0
	}
	for _, j := range m.jobs {
		if j.UserID == userID {
			out[j.Status]++
		}
	}
	return out, nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: map[string][]byte{}} }

func (b *memBlobs) Put(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) URL(key string) string { return "https://files.test/" + key }

func (b *memBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

func pdf(field string) Attachment {
	return Attachment{Field: field, Filename: "cv.PDF", ContentType: "application/pdf", Size: 4, Body: strings.NewReader("%PDF")}
}

func TestJobCreateDefaultsAndAttachments(t *testing.T) {
	blobs := newMemBlobs()
	svc := NewJobService(newMemJobs(), blobs, nil, "", nil)
	ctx := context.Background()

	j, err := svc.Create(ctx, "u1", JobInput{Company: "Acme", Position: "Backend Engineer"}, []Attachment{pdf(AttachmentResume)})
	require.NoError(t, err)

	assert.Equal(t, entity.JobStatusApplied, j.Status)
	assert.Equal(t, entity.DefaultJobSource, j.Source)
	require.NotEmpty(t, j.ResumeKey)
	assert.True(t, strings.HasPrefix(j.ResumeKey, "attachments/u1/resume/"))
	assert.True(t, strings.HasSuffix(j.ResumeKey, ".pdf"))
	assert.True(t, blobs.has(j.ResumeKey))
	assert.Equal(t, "https://files.test/"+j.ResumeKey, svc.View(j).ResumeURL)
}

func TestJobCreateValidation(t *testing.T) {
	svc := NewJobService(newMemJobs(), newMemBlobs(), nil, "", nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", JobInput{Company: "Acme"}, nil)
	assert.ErrorIs(t, err, ErrInvalidJob)

	_, err = svc.Create(ctx, "u1", JobInput{Company: "Acme", Position: "SRE", Status: "Ghosted"}, nil)
	assert.ErrorIs(t, err, ErrInvalidJob)

	bad := Attachment{Field: AttachmentJD, Filename: "jd.exe", Body: strings.NewReader("x")}
	_, err = svc.Create(ctx, "u1", JobInput{Company: "Acme", Position: "SRE"}, []Attachment{bad})
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	noStore := NewJobService(newMemJobs(), nil, nil, "", nil)
	_, err = noStore.Create(ctx, "u1", JobInput{Company: "Acme", Position: "SRE"}, []Attachment{pdf(AttachmentJD)})
	assert.ErrorIs(t, err, ErrStorageMissing)
}

func TestJobOwnershipAndUpdate(t *testing.T) {
	blobs := newMemBlobs()
	svc := NewJobService(newMemJobs(), blobs, nil, "", nil)
	ctx := context.Background()

	j, err := svc.Create(ctx, "u1", JobInput{Company: "Acme", Position: "SRE"}, []Attachment{pdf(AttachmentResume)})
	require.NoError(t, err)
	oldKey := j.ResumeKey

	_, err = svc.Get(ctx, "u2", j.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	updated, err := svc.Update(ctx, "u1", j.ID, JobInput{Status: "Interview", Notes: "onsite"}, []Attachment{pdf(AttachmentResume)})
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusInterview, updated.Status)
	assert.Equal(t, "Acme", updated.Company)
	assert.NotEqual(t, oldKey, updated.ResumeKey)
	assert.False(t, blobs.has(oldKey))
	assert.True(t, blobs.has(updated.ResumeKey))

	assert.ErrorIs(t, svc.Delete(ctx, "u2", j.ID), ErrJobNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", j.ID))
	assert.False(t, blobs.has(updated.ResumeKey))
}

func TestJobStatsAndList(t *testing.T) {
	svc := NewJobService(newMemJobs(), nil, nil, "", nil)
	ctx := context.Background()

	for _, st := range []string{"Applied", "Offer", "Offer"} {
		_, err := svc.Create(ctx, "u1", JobInput{Company: "C", Position: "P", Status: st}, nil)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "u2", JobInput{Company: "C", Position: "P"}, nil)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[entity.JobStatus]int{"Applied": 1, "Interview": 0, "Rejected": 0, "Offer": 2}, stats)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].CreatedAt.After(list[2].CreatedAt))
}

func TestJobSearchWithoutES(t *testing.T) {
	svc := NewJobService(newMemJobs(), nil, nil, "", nil)
	hits, err := svc.Search(context.Background(), "u1", "acme", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestJobIndexAndSearch(t *testing.T) {
	var mu sync.Mutex
	var searchBody map[string]any
	indexed := map[string]bool{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/_search"):
			_ = json.NewDecoder(r.Body).Decode(&searchBody)
			_, _ = io.WriteString(w, `{"hits":{"hits":[{"_id":"j1","_source":{"id":"j1","company":"Acme"}}]}}`)
		case r.Method == http.MethodPut || r.Method == http.MethodPost:
			indexed[r.URL.Path] = true
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"result":"created"}`)
		default:
			_, _ = io.WriteString(w, `{}`)
		}
	}))
	defer srv.Close()

	es, err := helpers.NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)
	svc := NewJobService(newMemJobs(), nil, es, "jobs", nil)
	ctx := context.Background()

	j, err := svc.Create(ctx, "u1", JobInput{Company: "Acme", Position: "SRE"}, nil)
	require.NoError(t, err)

	hits, err := svc.Search(ctx, "u1", "acme", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Acme", hits[0]["company"])

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, indexed["/jobs/_doc/"+j.ID])
	assert.EqualValues(t, 5, searchBody["size"])
}
