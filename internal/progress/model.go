package progress

import (
	"context"
	"time"
)

// ProgressModel one row per (user, lesson), upserted and never deleted
type ProgressModel struct {
	UserID      string     `json:"-"`
	LessonID    string     `json:"-"`
	IsCompleted bool       `json:"isCompleted"`
	Position    int        `json:"position"` // last playback position in seconds
	UpdatedAt   *time.Time `json:"updatedAt"`
}

// NoteModel free-form note attached to a lesson, stored verbatim.
// Sanitization is the renderer's responsibility
type NoteModel struct {
	UserID    string     `json:"-"`
	LessonID  string     `json:"-"`
	Content   string     `json:"content"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// ProgressEntry progress row shape exposed on the sync payload
type ProgressEntry struct {
	IsCompleted bool       `json:"isCompleted"`
	Position    int        `json:"position"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}

// SyncModel everything the client needs to reconcile, maps are always
// non-nil so a fresh user syncs to empty objects instead of an error
type SyncModel struct {
	Completed   map[string]bool          `json:"completed"`
	Notes       map[string]string        `json:"notes"`
	ProgressMap map[string]ProgressEntry `json:"progressMap"`
}

// SyncRepository row-level access to the progress and notes tables
type SyncRepository interface {
	GetProgressByUser(ctx context.Context, userID string) ([]*ProgressModel, error)
	GetNotesByUser(ctx context.Context, userID string) ([]*NoteModel, error)
	UpsertProgress(ctx context.Context, record *ProgressModel) error
	UpsertNote(ctx context.Context, record *NoteModel) error
}

// SyncUseCase operations backing the sync/progress/note endpoints
type SyncUseCase interface {
	GetSync(ctx context.Context, userID string) (*SyncModel, error)
	UpsertProgress(ctx context.Context, userID, lessonID string, isCompleted bool, position int) error
	UpsertNote(ctx context.Context, userID, lessonID, content string) error
}
