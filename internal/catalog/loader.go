package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CatalogLoadError fatal to the viewing session, the caller should
// surface it with a manual retry instead of falling back
type CatalogLoadError struct {
	URL    string
	Status int
	Err    error
}

func (e *CatalogLoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("load course data from %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("load course data from %s: %s", e.URL, e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

// Loader fetches the course manifest produced by the manifest
// generation step
type Loader struct {
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewLoader create a manifest loader
func NewLoader(timeout time.Duration, logger *zap.Logger) *Loader {
	return &Loader{
		client: &http.Client{Timeout: timeout},
		logger: logger,
		now:    time.Now,
	}
}

// Load fetch the manifest once. A cache-busting query parameter is
// appended so a stale CDN copy is never served
func (ld *Loader) Load(ctx context.Context, dataURL string) (Course, error) {
	bustURL := fmt.Sprintf("%s?v=%d", dataURL, ld.now().UnixNano()/1e6)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bustURL, nil)
	if err != nil {
		return nil, &CatalogLoadError{URL: dataURL, Err: err}
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := ld.client.Do(req)
	if err != nil {
		return nil, &CatalogLoadError{URL: dataURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &CatalogLoadError{URL: dataURL, Status: resp.StatusCode}
	}

	var course Course
	if err := json.NewDecoder(resp.Body).Decode(&course); err != nil {
		return nil, &CatalogLoadError{URL: dataURL, Err: err}
	}
	ld.logger.Debug("Loaded course manifest",
		zap.String("url.original", dataURL),
		zap.Int("course.chapters", len(course)),
		zap.Int("course.lessons", course.TotalLessons()),
	)
	return course, nil
}
