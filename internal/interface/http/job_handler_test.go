package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/job-tracker/internal/application"
)

type blobSink struct{ keys []string }

func (b *blobSink) Put(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	_, _ = io.Copy(io.Discard, r)
	b.keys = append(b.keys, key)
	return nil
}
func (b *blobSink) Delete(context.Context, string) error { return nil }
func (b *blobSink) URL(key string) string              { return "https://files.test/" + key }

func jobRouter(userID string) (*gin.Engine, *blobSink) {
	blobs := &blobSink{}
	h := NewJobHandler(application.NewJobService(&jobStore{}, blobs, nil, "", nil), nil, 1<<20)
	r := gin.New()
	g := r.Group("/api", func(c *gin.Context) { c.Set("userID", userID) })
	g.POST("/jobs", h.Create)
	g.GET("/jobs", h.List)
	g.GET("/jobs/stats", h.Stats)
	g.GET("/jobs/search", h.Search)
	g.GET("/jobs/:id", h.Get)
	g.PUT("/jobs/:id", h.Update)
	g.DELETE("/jobs/:id", h.Delete)
	return r, blobs
}

func multipartJob(t *testing.T, fields map[string]string, fileField, fileName string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, _ = fw.Write([]byte("%PDF-1.4"))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestCreateJobMultipart(t *testing.T) {
	r, blobs := jobRouter("u1")

	req := multipartJob(t, map[string]string{"company": "Acme", "position": "SRE", "deadline": "2026-12-01"}, "resume", "cv.pdf")
	w, body := serve(r, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Job created", body["msg"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "Applied", data["status"])
	assert.Equal(t, "LinkedIn", data["source"])
	require.Len(t, blobs.keys, 1)
	assert.Equal(t, "https://files.test/"+blobs.keys[0], data["resume_url"])
}

func TestCreateJobRejectsBadInput(t *testing.T) {
	r, _ := jobRouter("u1")

	w, _ := serve(r, multipartJob(t, map[string]string{"company": "Acme", "position": "SRE"}, "jd", "jd.exe"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := serve(r, multipartJob(t, map[string]string{"company": "Acme", "position": "SRE", "status": "Ghosted"}, "", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["msg"], "status")

	w, _ = serve(r, multipartJob(t, map[string]string{"company": "Acme", "position": "SRE", "deadline": "tomorrow"}, "", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobCRUDAndStats(t *testing.T) {
	r, _ := jobRouter("u1")

	b, _ := json.Marshal(map[string]string{"company": "Acme", "position": "SRE", "status": "Interview"})
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w, body := serve(r, req)
	require.Equal(t, http.StatusCreated, w.Code)
	id := body["data"].(map[string]any)["id"].(string)

	w, body = serve(r, httptest.NewRequest(http.MethodGet, "/api/jobs/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	stats := body["data"].(map[string]any)
	assert.EqualValues(t, 1, stats["Interview"])
	assert.EqualValues(t, 0, stats["Offer"])

	b, _ = json.Marshal(map[string]string{"status": "Offer"})
	req = httptest.NewRequest(http.MethodPut, "/api/jobs/"+id, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w, body = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Offer", body["data"].(map[string]any)["status"])

	w, body = serve(r, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 1)

	w, _ = serve(r, httptest.NewRequest(http.MethodGet, "/api/jobs/search", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = serve(r, httptest.NewRequest(http.MethodDelete, "/api/jobs/"+id, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = serve(r, httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Job not found", body["msg"])
}
