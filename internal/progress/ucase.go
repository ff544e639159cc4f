package progress

import (
	"context"

	"go.elastic.co/apm"
)

// SyncUseCaseImpl ...
type SyncUseCaseImpl struct {
	SyncRepository SyncRepository
}

var _ SyncUseCase = &SyncUseCaseImpl{}

// NewSyncUseCase ...
func NewSyncUseCase(
	SyncRepository SyncRepository,
) *SyncUseCaseImpl {
	return &SyncUseCaseImpl{SyncRepository}
}

// GetSync assemble the full per-user view consumed by the client
// reconciler. A user with no rows gets empty maps, not an error
func (su *SyncUseCaseImpl) GetSync(ctx context.Context, userID string) (*SyncModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "SyncUseCaseImpl.GetSync", "service")
	defer apmSpan.End()

	sr := su.SyncRepository
	progressRows, err := sr.GetProgressByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	noteRows, err := sr.GetNotesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sync := &SyncModel{
		Completed:   make(map[string]bool),
		Notes:       make(map[string]string),
		ProgressMap: make(map[string]ProgressEntry),
	}
	for _, row := range progressRows {
		sync.ProgressMap[row.LessonID] = ProgressEntry{
			IsCompleted: row.IsCompleted,
			Position:    row.Position,
			UpdatedAt:   row.UpdatedAt,
		}
		if row.IsCompleted {
			sync.Completed[row.LessonID] = true
		}
	}
	for _, row := range noteRows {
		sync.Notes[row.LessonID] = row.Content
	}
	return sync, nil
}

// UpsertProgress idempotent keyed write, repeated identical calls
// leave one row with the same visible fields
func (su *SyncUseCaseImpl) UpsertProgress(ctx context.Context, userID, lessonID string, isCompleted bool, position int) error {
	apmSpan, _ := apm.StartSpan(ctx, "SyncUseCaseImpl.UpsertProgress", "service")
	defer apmSpan.End()

	return su.SyncRepository.UpsertProgress(ctx, &ProgressModel{
		UserID:      userID,
		LessonID:    lessonID,
		IsCompleted: isCompleted,
		Position:    position,
	})
}

// UpsertNote store note content verbatim
func (su *SyncUseCaseImpl) UpsertNote(ctx context.Context, userID, lessonID, content string) error {
	apmSpan, _ := apm.StartSpan(ctx, "SyncUseCaseImpl.UpsertNote", "service")
	defer apmSpan.End()

	return su.SyncRepository.UpsertNote(ctx, &NoteModel{
		UserID:   userID,
		LessonID: lessonID,
		Content:  content,
	})
}
