package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/HarshalVankudre/CourseViewer/internal/progress"
)

// SyncError non-fatal sync failure, the caller falls back to the
// local cache and retries only on the next explicit action
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed: %s", e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// WriteError non-fatal remote write failure, data stays safe in the
// local cache
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s write failed: %s", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// API remote operations of the persistence service
type API interface {
	Sync(ctx context.Context, userID string) (*progress.SyncModel, error)
	UpdateProgress(ctx context.Context, userID, lessonID string, isCompleted bool, position int) error
	SaveNote(ctx context.Context, userID, lessonID, content string) error
}

// SyncAPI API implementation over HTTP. The base URL is injected, no
// module-level endpoint state
type SyncAPI struct {
	baseURL string
	client  *http.Client
}

var _ API = &SyncAPI{}

// NewSyncAPI create an API client rooted at baseURL (eg. http://host:8081/api)
func NewSyncAPI(baseURL string, timeout time.Duration) *SyncAPI {
	return &SyncAPI{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Sync fetch the remote view for userID
func (api *SyncAPI) Sync(ctx context.Context, userID string) (*progress.SyncModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.baseURL+"/sync/"+userID, nil)
	if err != nil {
		return nil, &SyncError{err}
	}
	resp, err := api.client.Do(req)
	if err != nil {
		return nil, &SyncError{err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &SyncError{fmt.Errorf("status %d", resp.StatusCode)}
	}

	sync := new(progress.SyncModel)
	if err := json.NewDecoder(resp.Body).Decode(sync); err != nil {
		return nil, &SyncError{err}
	}
	return sync, nil
}

type progressBody struct {
	UserID      string `json:"userId"`
	LessonID    string `json:"lessonId"`
	IsCompleted bool   `json:"isCompleted"`
	Position    int    `json:"position"`
}

type noteBody struct {
	UserID   string `json:"userId"`
	LessonID string `json:"lessonId"`
	Content  string `json:"content"`
}

// UpdateProgress fire a progress upsert
func (api *SyncAPI) UpdateProgress(ctx context.Context, userID, lessonID string, isCompleted bool, position int) error {
	err := api.post(ctx, "/progress", progressBody{
		UserID:      userID,
		LessonID:    lessonID,
		IsCompleted: isCompleted,
		Position:    position,
	})
	if err != nil {
		return &WriteError{Op: "progress", Err: err}
	}
	return nil
}

// SaveNote fire a note upsert
func (api *SyncAPI) SaveNote(ctx context.Context, userID, lessonID, content string) error {
	err := api.post(ctx, "/note", noteBody{
		UserID:   userID,
		LessonID: lessonID,
		Content:  content,
	})
	if err != nil {
		return &WriteError{Op: "note", Err: err}
	}
	return nil
}

func (api *SyncAPI) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := api.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
