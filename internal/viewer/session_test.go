package viewer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	infra "github.com/HarshalVankudre/CourseViewer/internal/infrastructure"
	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/driver"
)

type noopMedia struct {
	position float64
	duration float64
}

func (m *noopMedia) Play() error            { return nil }
func (m *noopMedia) Pause()                 {}
func (m *noopMedia) Seek(seconds float64)   { m.position = seconds }
func (m *noopMedia) Position() float64      { return m.position }
func (m *noopMedia) Duration() float64      { return m.duration }
func (m *noopMedia) SetRate(float64)        {}
func (m *noopMedia) SetVolume(float64)      {}
func (m *noopMedia) SetMuted(bool)          {}
func (m *noopMedia) SetNativeCaptions(bool) {}

const sessionManifest = `[
  {"title": "1 Basics", "lessons": [
    {"title": "Intro", "url": "intro.mp4", "filename": "intro.mp4", "type": "video", "resources": []},
    {"title": "Setup", "url": "setup.mp4", "filename": "setup.mp4", "type": "video", "resources": []}
  ]}
]`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sessionManifest))
	})
	mux.HandleFunc("/api/sync/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"completed":{},"notes":{},"progressMap":{}}`))
	})
	return httptest.NewServer(mux)
}

func testOption(serverURL string) *infra.AppConfig {
	option := new(infra.AppConfig)
	option.Client.APIBaseURL = serverURL + "/api"
	option.Client.CourseDataURL = serverURL + "/data.json"
	option.Client.CourseID = "course-1"
	option.Client.Timeout = 2 * time.Second
	option.Playback.SaveInterval = time.Hour
	option.Playback.NoteDebounce = time.Hour
	option.Security.IDLength = 8
	return option
}

func TestNewSessionOpensFirstLesson(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	session, err := NewSession(context.Background(), driver.NewMemoryKV(), &noopMedia{duration: 100}, testOption(server.URL), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSession failed: %s", err)
	}
	defer session.Close()

	if session.UserID == "" {
		t.Fatalf("expected a generated user token")
	}
	session.Start(context.Background())
	if lesson := session.Player.Lesson(); lesson == nil || lesson.Key() != "intro.mp4" {
		t.Fatalf("expected first lesson opened, got %+v", lesson)
	}
}

func TestSessionResumesLastLesson(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	kv := driver.NewMemoryKV()
	option := testOption(server.URL)

	first, err := NewSession(context.Background(), kv, &noopMedia{duration: 100}, option, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSession failed: %s", err)
	}
	first.OpenLesson("setup.mp4")
	userID := first.UserID
	first.Close()

	second, err := NewSession(context.Background(), kv, &noopMedia{duration: 100}, option, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSession failed: %s", err)
	}
	defer second.Close()

	if second.UserID != userID {
		t.Fatalf("expected stable user token across sessions")
	}
	second.Start(context.Background())
	if lesson := second.Player.Lesson(); lesson == nil || lesson.Key() != "setup.mp4" {
		t.Fatalf("expected last viewed lesson reopened, got %+v", lesson)
	}
}

func TestSessionUnknownLastLessonFallsBack(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	kv := driver.NewMemoryKV()
	option := testOption(server.URL)
	session, err := NewSession(context.Background(), kv, &noopMedia{duration: 100}, option, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSession failed: %s", err)
	}
	defer session.Close()

	// a key from a removed lesson must not strand the viewer
	session.Reconciler.SelectLesson("deleted.mp4")
	session.Start(context.Background())
	if lesson := session.Player.Lesson(); lesson == nil || !strings.HasSuffix(lesson.Key(), "intro.mp4") {
		t.Fatalf("expected fallback to first lesson, got %+v", lesson)
	}
}
