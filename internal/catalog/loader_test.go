package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

const manifestJSON = `[
  {
    "title": "1 Basics",
    "lessons": [
      {"title": "Intro", "url": "http://cdn/1/intro.mp4", "filename": "intro.mp4", "type": "video", "resources": []},
      {"title": "Reading", "filename": "reading.html", "type": "text", "content": "<p>hi</p>", "resources": []}
    ]
  }
]`

func TestLoaderLoad(t *testing.T) {
	var gotQuery, gotCacheControl string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotCacheControl = r.Header.Get("Cache-Control")
		w.Write([]byte(manifestJSON))
	}))
	defer server.Close()

	loader := NewLoader(2*time.Second, zap.NewNop())
	course, err := loader.Load(context.Background(), server.URL+"/data.json")
	if err != nil {
		t.Fatalf("Load failed: %s", err)
	}

	if gotQuery == "" || gotQuery[:2] != "v=" {
		t.Fatalf("expected cache-busting query, got %q", gotQuery)
	}
	if gotCacheControl != "no-store" {
		t.Fatalf("expected no-store header, got %q", gotCacheControl)
	}
	if course.TotalLessons() != 2 {
		t.Fatalf("expected 2 lessons, got %d", course.TotalLessons())
	}
	if lesson := course.FindByKey("http://cdn/1/intro.mp4"); lesson == nil || lesson.Type != TypeVideo {
		t.Fatalf("expected video lesson found by URL key")
	}
	if lesson := course.FindByKey("reading.html"); lesson == nil || lesson.Content == "" {
		t.Fatalf("expected text lesson found by filename with inline content")
	}
}

func TestLoaderNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	loader := NewLoader(2*time.Second, zap.NewNop())
	_, err := loader.Load(context.Background(), server.URL+"/data.json")

	var loadErr *CatalogLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected CatalogLoadError, got %T", err)
	}
	if loadErr.Status != http.StatusNotFound {
		t.Fatalf("expected status 404 in error, got %d", loadErr.Status)
	}
}

func TestLoaderDecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	loader := NewLoader(2*time.Second, zap.NewNop())
	_, err := loader.Load(context.Background(), server.URL+"/data.json")

	var loadErr *CatalogLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected CatalogLoadError, got %T", err)
	}
}

func TestCourseIndexOf(t *testing.T) {
	course := Course{
		{Title: "1", Lessons: []*Lesson{
			{Title: "a", URL: "a.mp4", Type: TypeVideo},
			{Title: "b", Filename: "b.html", Type: TypeText},
		}},
		{Title: "2", Lessons: []*Lesson{
			{Title: "c", URL: "c.mp4", Type: TypeVideo},
		}},
	}

	if got := course.IndexOf(course[1].Lessons[0]); got != 2 {
		t.Fatalf("expected flattened index 2, got %d", got)
	}
	if got := course.IndexOf(nil); got != -1 {
		t.Fatalf("expected -1 for nil lesson, got %d", got)
	}
	if got := course.FindByKey(""); got != nil {
		t.Fatalf("expected nil for empty key")
	}
}
