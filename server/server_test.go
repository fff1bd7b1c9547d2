package server

import (
	"bytes"
	"clipsplit/chunker"
	"clipsplit/materializer"
	"clipsplit/models"
	"clipsplit/splitter"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	duration   float64
	probeErr   error
	failStarts map[int]bool

	// When set, Extract writes part of the clip, signals started and
	// waits for release before finishing.
	started chan struct{}
	release chan struct{}
}

func (f *fakeBackend) Probe(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	return f.duration, f.probeErr
}

func (f *fakeBackend) Extract(ctx context.Context, req materializer.ExtractRequest) error {
	if f.failStarts[req.Segment.Start] {
		return errors.New("ffmpeg exited with code 1: corrupt frame")
	}
	if f.release != nil {
		if err := os.WriteFile(req.Output, []byte("HALF-WRITTEN"), 0644); err != nil {
			return err
		}
		f.started <- struct{}{}
		<-f.release
	}
	return os.WriteFile(req.Output, []byte("mp4 "+req.Segment.String()), 0644)
}

type fixture struct {
	server    *Server
	handler   http.Handler
	outputDir string
	uploadDir string
}

func newFixture(t *testing.T, backend *fakeBackend) *fixture {
	t.Helper()
	root := t.TempDir()
	outputDir := filepath.Join(root, "clips")
	uploadDir := filepath.Join(root, "uploads")

	m := materializer.New(backend, materializer.Options{Workers: 2}, zerolog.Nop())
	sp, err := splitter.New(backend, m, splitter.Options{OutputDir: outputDir, Trailing: chunker.TrailingTruncate}, zerolog.Nop())
	require.NoError(t, err)

	srv, err := New(sp, Options{UploadDir: uploadDir, MaxUploadBytes: 1 << 20, DefaultMinutes: 2}, zerolog.Nop())
	require.NoError(t, err)

	return &fixture{server: srv, handler: srv.Handler(), outputDir: outputDir, uploadDir: uploadDir}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, filename, minutes string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("minutes", minutes))
	if filename != "" {
		part, err := mw.CreateFormFile("video", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/split", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (f *fixture) page(t *testing.T) *goquery.Document {
	t.Helper()
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Options{UploadDir: "u", MaxUploadBytes: 1}, zerolog.Nop())
	assert.Error(t, err)

	f := newFixture(t, &fakeBackend{})
	_, err = New(f.server.splitter, Options{MaxUploadBytes: 1}, zerolog.Nop())
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	_, err = New(f.server.splitter, Options{UploadDir: "u"}, zerolog.Nop())
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestIndex_Empty(t *testing.T) {
	f := newFixture(t, &fakeBackend{})
	doc := f.page(t)

	assert.Equal(t, 1, doc.Find("form#split-form").Length())
	val, _ := doc.Find(`input[name="minutes"]`).Attr("value")
	assert.Equal(t, "2", val)
	minAttr, _ := doc.Find(`input[name="minutes"]`).Attr("min")
	assert.Equal(t, "1", minAttr)
	accept, _ := doc.Find(`input[name="video"]`).Attr("accept")
	assert.Equal(t, ".mp4,.mov,.avi,.mkv", accept)
	assert.Equal(t, 0, doc.Find("#results").Length())
}

func TestSplit_RendersClips(t *testing.T) {
	f := newFixture(t, &fakeBackend{duration: 150})

	rec := f.do(t, uploadRequest(t, "holiday.MOV", "1", []byte("video bytes")))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	uploads, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, ".mov", filepath.Ext(uploads[0].Name()))
	assert.Len(t, strings.TrimSuffix(uploads[0].Name(), ".mov"), 36, "uploads are named by uuid")

	doc := f.page(t)
	assert.Equal(t, "Done! Generated 3 clips.", strings.TrimSpace(doc.Find("#summary").Text()))

	var sources, downloads []string
	doc.Find(".clip video").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		sources = append(sources, src)
	})
	doc.Find(".clip a.download").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		downloads = append(downloads, href)
	})
	assert.Equal(t, []string{"/clips/clip_0_60.mp4", "/clips/clip_60_120.mp4", "/clips/clip_120_150.mp4"}, sources)
	assert.Equal(t, []string{"/download/clip_0_60.mp4", "/download/clip_60_120.mp4", "/download/clip_120_150.mp4"}, downloads)
	assert.Equal(t, "00:01:00 to 00:02:00", strings.TrimSpace(doc.Find(".clip h3").Eq(1).Text()))
	assert.Equal(t, 0, doc.Find("#failures").Length())
}

func TestSplit_PartialFailureShown(t *testing.T) {
	f := newFixture(t, &fakeBackend{duration: 180, failStarts: map[int]bool{60: true}})

	rec := f.do(t, uploadRequest(t, "talk.mp4", "1", []byte("video")))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	doc := f.page(t)
	assert.Equal(t, "Done! Generated 2 clips.", strings.TrimSpace(doc.Find("#summary").Text()))
	failed := doc.Find("#failures li")
	require.Equal(t, 1, failed.Length())
	clip, _ := failed.Attr("data-clip")
	assert.Equal(t, "clip_60_120.mp4", clip)
	assert.Contains(t, failed.Text(), "corrupt frame")

	job := f.server.Job()
	require.NotNil(t, job)
	assert.Len(t, job.Artifacts, 3)
}

func TestSplit_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		minutes  string
		status   int
	}{
		{"zero minutes", "a.mp4", "0", http.StatusBadRequest},
		{"negative minutes", "a.mp4", "-1", http.StatusBadRequest},
		{"not a number", "a.mp4", "two", http.StatusBadRequest},
		{"unsupported extension", "notes.txt", "1", http.StatusBadRequest},
		{"missing file", "", "1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &fakeBackend{duration: 60})
			rec := f.do(t, uploadRequest(t, tt.filename, tt.minutes, []byte("x")))
			assert.Equal(t, tt.status, rec.Code)
			assert.Nil(t, f.server.Job())
			assert.NoDirExists(t, f.outputDir)
		})
	}
}

func TestSplit_TooLarge(t *testing.T) {
	f := newFixture(t, &fakeBackend{duration: 60})
	rec := f.do(t, uploadRequest(t, "big.mp4", "1", bytes.Repeat([]byte("x"), 2<<20)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSplit_ProbeFailure(t *testing.T) {
	f := newFixture(t, &fakeBackend{probeErr: errors.New("invalid data found when processing input")})

	rec := f.do(t, uploadRequest(t, "broken.mkv", "1", []byte("garbage")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "probe failed")

	doc := f.page(t)
	assert.Contains(t, doc.Find("#error").Text(), "invalid data found")
}

func TestSplit_ConflictWhileBusy(t *testing.T) {
	f := newFixture(t, &fakeBackend{duration: 60})
	f.server.busy.Store(true)

	rec := f.do(t, uploadRequest(t, "a.mp4", "1", []byte("x")))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodPost, "/purge", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	_, disabled := f.page(t).Find(`#split-form button`).Attr("disabled")
	assert.True(t, disabled)
}

func TestSplit_NewJobReplacesOld(t *testing.T) {
	f := newFixture(t, &fakeBackend{duration: 120})

	require.Equal(t, http.StatusSeeOther, f.do(t, uploadRequest(t, "a.mp4", "1", []byte("a"))).Code)
	first := f.server.Job()
	require.Equal(t, http.StatusSeeOther, f.do(t, uploadRequest(t, "b.mp4", "2", []byte("b"))).Code)
	second := f.server.Job()

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, second.Artifacts, 1)
	assert.Equal(t, 120, second.SegmentSeconds)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/clips/clip_60_120.mp4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "clips of the replaced job are gone")
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/clips/clip_0_120.mp4", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClip_NotServedWhileExtracting(t *testing.T) {
	backend := &fakeBackend{duration: 60, started: make(chan struct{}, 1), release: make(chan struct{})}
	f := newFixture(t, backend)

	req := uploadRequest(t, "a.mp4", "1", []byte("a"))
	done := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		done <- rec.Code
	}()

	<-backend.started
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/download/clip_0_60.mp4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/clips/clip_0_60.mp4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	close(backend.release)
	require.Equal(t, http.StatusSeeOther, <-done)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/download/clip_0_60.mp4", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mp4 0-60", rec.Body.String())
}

func TestClipAndDownload(t *testing.T) {
	f := newFixture(t, &fakeBackend{duration: 90})
	require.Equal(t, http.StatusSeeOther, f.do(t, uploadRequest(t, "a.mp4", "1", []byte("a"))).Code)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/clips/clip_60_90.mp4", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp4 60-90", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Disposition"))

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/download/clip_0_60.mp4", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="clip_0_60.mp4"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "mp4 0-60", rec.Body.String())
}

func TestClip_NotFoundAndInvalid(t *testing.T) {
	f := newFixture(t, &fakeBackend{duration: 90})

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/clips/clip_0_60.mp4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/download/secrets.txt", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/clips/clip_0_60.mkv", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurge(t *testing.T) {
	f := newFixture(t, &fakeBackend{duration: 120})
	require.Equal(t, http.StatusSeeOther, f.do(t, uploadRequest(t, "a.mp4", "1", []byte("a"))).Code)

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/purge", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, f.server.Job())

	for _, dir := range []string{f.outputDir, f.uploadDir} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, dir)
	}

	assert.Equal(t, 0, f.page(t).Find("#results").Length())

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/clips/clip_0_60.mp4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPurge_NothingToPurge(t *testing.T) {
	f := newFixture(t, &fakeBackend{})
	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/purge", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.DirExists(t, f.outputDir)
}

func TestAPIClips(t *testing.T) {
	f := newFixture(t, &fakeBackend{duration: 150, failStarts: map[int]bool{120: true}})

	var resp clipsResponse
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/clips", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.JobID)
	assert.Empty(t, resp.Artifacts)

	require.Equal(t, http.StatusSeeOther, f.do(t, uploadRequest(t, "a.mp4", "1", []byte("a"))).Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/clips", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.JobID)
	require.Len(t, resp.Artifacts, 3)
	assert.Equal(t, models.ArtifactSuccess, resp.Artifacts[0].Status)
	assert.Equal(t, models.ArtifactFailed, resp.Artifacts[2].Status)
	assert.NotEmpty(t, resp.Artifacts[2].Error)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(models.ErrInvalidArgument))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(models.ErrProbeFailure))
	assert.Equal(t, http.StatusInternalServerError, statusFor(models.ErrStorage))
}
