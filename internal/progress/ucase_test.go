package progress

import (
	"context"
	"testing"
	"time"
)

type memRepo struct {
	progress map[string]*ProgressModel
	notes    map[string]*NoteModel
}

func newMemRepo() *memRepo {
	return &memRepo{
		progress: make(map[string]*ProgressModel),
		notes:    make(map[string]*NoteModel),
	}
}

func key(userID, lessonID string) string {
	return userID + "\x00" + lessonID
}

func (m *memRepo) GetProgressByUser(ctx context.Context, userID string) ([]*ProgressModel, error) {
	var result []*ProgressModel
	for _, row := range m.progress {
		if row.UserID == userID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *memRepo) GetNotesByUser(ctx context.Context, userID string) ([]*NoteModel, error) {
	var result []*NoteModel
	for _, row := range m.notes {
		if row.UserID == userID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *memRepo) UpsertProgress(ctx context.Context, record *ProgressModel) error {
	now := time.Now()
	record.UpdatedAt = &now
	m.progress[key(record.UserID, record.LessonID)] = record
	return nil
}

func (m *memRepo) UpsertNote(ctx context.Context, record *NoteModel) error {
	now := time.Now()
	record.UpdatedAt = &now
	m.notes[key(record.UserID, record.LessonID)] = record
	return nil
}

func TestGetSyncEmptyUser(t *testing.T) {
	ucase := NewSyncUseCase(newMemRepo())

	sync, err := ucase.GetSync(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetSync failed: %s", err)
	}
	if sync.Completed == nil || sync.Notes == nil || sync.ProgressMap == nil {
		t.Fatalf("expected non-nil maps for unknown user, got %+v", sync)
	}
	if len(sync.Completed)+len(sync.Notes)+len(sync.ProgressMap) != 0 {
		t.Fatalf("expected empty maps, got %+v", sync)
	}
}

func TestGetSyncReflectsUpserts(t *testing.T) {
	ucase := NewSyncUseCase(newMemRepo())
	ctx := context.Background()

	if err := ucase.UpsertProgress(ctx, "u1", "a.mp4", true, 300); err != nil {
		t.Fatalf("UpsertProgress failed: %s", err)
	}
	if err := ucase.UpsertProgress(ctx, "u1", "b.mp4", false, 42); err != nil {
		t.Fatalf("UpsertProgress failed: %s", err)
	}
	if err := ucase.UpsertNote(ctx, "u1", "a.mp4", "remember this"); err != nil {
		t.Fatalf("UpsertNote failed: %s", err)
	}

	sync, err := ucase.GetSync(ctx, "u1")
	if err != nil {
		t.Fatalf("GetSync failed: %s", err)
	}
	if !sync.Completed["a.mp4"] {
		t.Fatalf("expected a.mp4 in completed map")
	}
	if _, ok := sync.Completed["b.mp4"]; ok {
		t.Fatalf("incomplete lesson must not appear in the completed map")
	}
	if sync.ProgressMap["b.mp4"].Position != 42 {
		t.Fatalf("expected position 42, got %+v", sync.ProgressMap["b.mp4"])
	}
	if sync.Notes["a.mp4"] != "remember this" {
		t.Fatalf("expected note content, got %q", sync.Notes["a.mp4"])
	}
}

func TestUpsertProgressIdempotent(t *testing.T) {
	repo := newMemRepo()
	ucase := NewSyncUseCase(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := ucase.UpsertProgress(ctx, "u1", "a.mp4", true, 120); err != nil {
			t.Fatalf("UpsertProgress failed: %s", err)
		}
	}
	if len(repo.progress) != 1 {
		t.Fatalf("expected a single row, got %d", len(repo.progress))
	}
	row := repo.progress[key("u1", "a.mp4")]
	if !row.IsCompleted || row.Position != 120 {
		t.Fatalf("unexpected row %+v", row)
	}
}
