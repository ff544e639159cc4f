package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HarshalVankudre/CourseViewer/internal/client"
	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/driver"
	"github.com/HarshalVankudre/CourseViewer/internal/progress"
)

type progressCall struct {
	lessonID    string
	isCompleted bool
	position    int
}

type noteCall struct {
	lessonID string
	content  string
}

type fakeAPI struct {
	mu            sync.Mutex
	syncModel     *progress.SyncModel
	syncErr       error
	progressCalls []progressCall
	noteCalls     []noteCall
}

func (f *fakeAPI) Sync(ctx context.Context, userID string) (*progress.SyncModel, error) {
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	return f.syncModel, nil
}

func (f *fakeAPI) UpdateProgress(ctx context.Context, userID, lessonID string, isCompleted bool, position int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressCalls = append(f.progressCalls, progressCall{lessonID, isCompleted, position})
	return nil
}

func (f *fakeAPI) SaveNote(ctx context.Context, userID, lessonID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noteCalls = append(f.noteCalls, noteCall{lessonID, content})
	return nil
}

func (f *fakeAPI) progressCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.progressCalls)
}

func (f *fakeAPI) lastProgress() (progressCall, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.progressCalls) == 0 {
		return progressCall{}, 0
	}
	return f.progressCalls[len(f.progressCalls)-1], len(f.progressCalls)
}

func (f *fakeAPI) lastNote() (noteCall, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.noteCalls) == 0 {
		return noteCall{}, 0
	}
	return f.noteCalls[len(f.noteCalls)-1], len(f.noteCalls)
}

type seqGenerator struct {
	n int
}

func (g *seqGenerator) Generate() (string, error) {
	g.n++
	return fmt.Sprintf("id-%d", g.n), nil
}

func newTestReconciler(t *testing.T, api *fakeAPI, cfg Config) (*Reconciler, *client.Cache) {
	t.Helper()
	cache := client.NewCache(driver.NewMemoryKV(), "course-1", zap.NewNop())
	rec := New(cache, api, "user-1", &seqGenerator{}, cfg, zap.NewNop())
	return rec, cache
}

func TestSyncMergeRemoteWins(t *testing.T) {
	api := &fakeAPI{
		syncModel: &progress.SyncModel{
			Completed:   map[string]bool{"a.mp4": false, "b.mp4": true},
			Notes:       map[string]string{"a.mp4": "remote note"},
			ProgressMap: map[string]progress.ProgressEntry{"b.mp4": {Position: 120}},
		},
	}
	rec, cache := newTestReconciler(t, api, Config{})
	cache.SaveCompleted(map[string]bool{"a.mp4": true, "c.mp4": true})
	cache.SaveNotes(map[string]string{"a.mp4": "local note"})

	rec.Load()
	view, err := rec.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %s", err)
	}

	if view.Completed["a.mp4"] {
		t.Fatalf("expected remote value to win for a.mp4")
	}
	if !view.Completed["b.mp4"] {
		t.Fatalf("expected remote-only key b.mp4 to be merged in")
	}
	if !view.Completed["c.mp4"] {
		t.Fatalf("expected local-only key c.mp4 to be preserved")
	}
	if view.Notes["a.mp4"] != "remote note" {
		t.Fatalf("expected remote note, got %q", view.Notes["a.mp4"])
	}
	if view.Progress["b.mp4"].Position != 120 {
		t.Fatalf("expected merged progress entry, got %+v", view.Progress["b.mp4"])
	}
}

func TestSyncFailureKeepsLocalView(t *testing.T) {
	api := &fakeAPI{syncErr: &client.SyncError{Err: errors.New("connection refused")}}
	rec, cache := newTestReconciler(t, api, Config{})
	cache.SaveCompleted(map[string]bool{"a.mp4": true})

	rec.Load()
	view, err := rec.Sync(context.Background())
	if err == nil {
		t.Fatalf("expected sync error")
	}
	if !view.Completed["a.mp4"] {
		t.Fatalf("expected local view to survive a failed sync")
	}
}

func TestEditNoteDebounce(t *testing.T) {
	api := &fakeAPI{}
	rec, _ := newTestReconciler(t, api, Config{NoteDebounce: 30 * time.Millisecond, SaveInterval: time.Hour})
	rec.Load()

	rec.EditNote("a.mp4", "d")
	rec.EditNote("a.mp4", "dr")
	rec.EditNote("a.mp4", "draft")

	time.Sleep(120 * time.Millisecond)
	last, count := api.lastNote()
	if count != 1 {
		t.Fatalf("expected 1 remote note write, got %d", count)
	}
	if last.content != "draft" {
		t.Fatalf("expected settled content, got %q", last.content)
	}
	if rec.View().Notes["a.mp4"] != "draft" {
		t.Fatalf("expected local note updated immediately")
	}
}

func TestCloseFlushesPendingNote(t *testing.T) {
	api := &fakeAPI{}
	rec, _ := newTestReconciler(t, api, Config{NoteDebounce: time.Hour, SaveInterval: time.Hour})
	rec.Load()

	rec.EditNote("a.mp4", "unsent")
	rec.Close()

	last, count := api.lastNote()
	if count != 1 {
		t.Fatalf("expected Close to flush the pending note, got %d writes", count)
	}
	if last.content != "unsent" {
		t.Fatalf("expected flushed content, got %q", last.content)
	}
}

func TestCloseFlushesPendingPositionSynchronously(t *testing.T) {
	api := &fakeAPI{}
	rec, _ := newTestReconciler(t, api, Config{SaveInterval: time.Hour})
	rec.Load()

	rec.SetPosition("a.mp4", 77)
	rec.Close()

	// no sleep on purpose, the teardown flush must have landed by now
	last, count := api.lastProgress()
	if count != 1 {
		t.Fatalf("expected the final position pushed before Close returned, got %d writes", count)
	}
	if last.lessonID != "a.mp4" || last.position != 77 {
		t.Fatalf("unexpected flushed write %+v", last)
	}
}

func TestMarkCompleteRepeatAdvancesPosition(t *testing.T) {
	api := &fakeAPI{}
	rec, cache := newTestReconciler(t, api, Config{})
	rec.Load()

	rec.MarkComplete("a.mp4", 95)
	time.Sleep(80 * time.Millisecond)
	rec.MarkComplete("a.mp4", 100) // replayed to the end

	time.Sleep(80 * time.Millisecond)
	if got := api.progressCallCount(); got != 1 {
		t.Fatalf("expected a single completion write, got %d", got)
	}
	if got := cache.Progress()["a.mp4"].Position; got != 100 {
		t.Fatalf("expected repeat completion to advance the stored position, got %d", got)
	}
}

func TestMarkCompleteIdempotent(t *testing.T) {
	api := &fakeAPI{}
	rec, _ := newTestReconciler(t, api, Config{})
	rec.Load()

	rec.MarkComplete("a.mp4", 300)
	rec.MarkComplete("a.mp4", 300)

	time.Sleep(80 * time.Millisecond)
	if got := api.progressCallCount(); got != 1 {
		t.Fatalf("expected exactly 1 remote completion write, got %d", got)
	}
	if !rec.IsCompleted("a.mp4") {
		t.Fatalf("expected lesson marked complete")
	}
}

func TestLocalWriteLandsBeforeRemote(t *testing.T) {
	api := &fakeAPI{}
	rec, cache := newTestReconciler(t, api, Config{})
	rec.Load()

	rec.SetPosition("a.mp4", 42)
	if got := cache.Progress()["a.mp4"].Position; got != 42 {
		t.Fatalf("expected position cached synchronously, got %d", got)
	}
	if got := api.progressCallCount(); got != 0 {
		t.Fatalf("SetPosition must not hit the network, got %d calls", got)
	}
}

func TestBookmarksSortedAscending(t *testing.T) {
	api := &fakeAPI{}
	rec, _ := newTestReconciler(t, api, Config{})
	rec.Load()

	for _, seconds := range []int{90, 15, 40} {
		if _, err := rec.AddBookmark("a.mp4", seconds); err != nil {
			t.Fatalf("AddBookmark failed: %s", err)
		}
	}
	marks := rec.Bookmarks("a.mp4")
	if len(marks) != 3 {
		t.Fatalf("expected 3 bookmarks, got %d", len(marks))
	}
	for i := 1; i < len(marks); i++ {
		if marks[i-1].Seconds > marks[i].Seconds {
			t.Fatalf("bookmarks not sorted: %+v", marks)
		}
	}

	rec.RemoveBookmark("a.mp4", marks[1].ID)
	if got := len(rec.Bookmarks("a.mp4")); got != 2 {
		t.Fatalf("expected 2 bookmarks after removal, got %d", got)
	}
}

func TestAutoSaveTicker(t *testing.T) {
	api := &fakeAPI{}
	rec, _ := newTestReconciler(t, api, Config{SaveInterval: 20 * time.Millisecond})
	rec.Load()

	position := 7
	rec.StartAutoSave("a.mp4", func() int { return position })
	time.Sleep(70 * time.Millisecond)
	rec.StopAutoSave()

	saved := api.progressCallCount()
	if saved == 0 {
		t.Fatalf("expected periodic position saves")
	}
	time.Sleep(50 * time.Millisecond)
	if got := api.progressCallCount(); got != saved {
		t.Fatalf("expected no saves after stop, got %d more", got-saved)
	}
}
