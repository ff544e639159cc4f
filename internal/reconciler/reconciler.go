package reconciler

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HarshalVankudre/CourseViewer/internal/client"
	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/uuid"
	"github.com/HarshalVankudre/CourseViewer/internal/progress"
)

// SaveStatus transient indicator surfaced next to the player
type SaveStatus int

// save states
const (
	StatusIdle SaveStatus = iota
	StatusSaving
	StatusSaved
	StatusError
)

// View the authoritative in-memory state consumed by presentation
type View struct {
	Completed  map[string]bool
	Notes      map[string]string
	Progress   map[string]progress.ProgressEntry
	Bookmarks  map[string][]client.Bookmark
	LastLesson string
}

// Config timing knobs, injected so tests can shrink them
type Config struct {
	NoteDebounce time.Duration // quiet period before a note write
	SaveInterval time.Duration // position save period while playing
}

// Reconciler merges the client cache, the server sync response and
// live playback reports into one view. Local writes land in the cache
// before the matching remote write is dispatched, so a reload always
// reflects the latest local intent
type Reconciler struct {
	mu        sync.Mutex
	cache     *client.Cache
	api       client.API
	logger    *zap.Logger
	cfg       Config
	userID    string
	generator uuid.Generator

	view View

	noteTimer   *time.Timer
	pendingNote struct {
		lessonID string
		content  string
		set      bool
	}
	pendingPos struct {
		lessonID string
		set      bool
	}

	autosaveStop chan struct{}

	// OnSaveStatus observes remote write outcomes, may be nil
	OnSaveStatus func(SaveStatus)
}

// New create a reconciler for one course. generator mints bookmark IDs
func New(cache *client.Cache, api client.API, userID string, generator uuid.Generator, cfg Config, logger *zap.Logger) *Reconciler {
	if cfg.NoteDebounce <= 0 {
		cfg.NoteDebounce = time.Second
	}
	if cfg.SaveInterval <= 0 {
		cfg.SaveInterval = 15 * time.Second
	}
	return &Reconciler{
		cache:     cache,
		api:       api,
		logger:    logger,
		cfg:       cfg,
		userID:    userID,
		generator: generator,
		view: View{
			Completed: make(map[string]bool),
			Notes:     make(map[string]string),
			Progress:  make(map[string]progress.ProgressEntry),
			Bookmarks: make(map[string][]client.Bookmark),
		},
	}
}

// Load publish the cached state immediately, before any network call
func (r *Reconciler) Load() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view = View{
		Completed:  r.cache.Completed(),
		Notes:      r.cache.Notes(),
		Progress:   r.cache.Progress(),
		Bookmarks:  r.cache.Bookmarks(),
		LastLesson: r.cache.LastLesson(),
	}
	return r.snapshotLocked()
}

// Sync fetch the remote state and merge it in. Remote entries win on
// shared keys, keys only present locally are preserved. This is
// last-write-wins, concurrent multi-device edits may lose one side
func (r *Reconciler) Sync(ctx context.Context) (View, error) {
	remote, err := r.api.Sync(ctx, r.userID)
	if err != nil {
		r.logger.Warn("Sync failed, keeping cached view", zap.Error(err))
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.snapshotLocked(), err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range remote.Completed {
		r.view.Completed[k] = v
	}
	for k, v := range remote.Notes {
		r.view.Notes[k] = v
	}
	for k, v := range remote.ProgressMap {
		r.view.Progress[k] = v
	}
	return r.snapshotLocked(), nil
}

// View current state snapshot
func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Reconciler) snapshotLocked() View {
	snapshot := View{
		Completed:  make(map[string]bool, len(r.view.Completed)),
		Notes:      make(map[string]string, len(r.view.Notes)),
		Progress:   make(map[string]progress.ProgressEntry, len(r.view.Progress)),
		Bookmarks:  make(map[string][]client.Bookmark, len(r.view.Bookmarks)),
		LastLesson: r.view.LastLesson,
	}
	for k, v := range r.view.Completed {
		snapshot.Completed[k] = v
	}
	for k, v := range r.view.Notes {
		snapshot.Notes[k] = v
	}
	for k, v := range r.view.Progress {
		snapshot.Progress[k] = v
	}
	for k, v := range r.view.Bookmarks {
		snapshot.Bookmarks[k] = append([]client.Bookmark(nil), v...)
	}
	return snapshot
}

// ToggleComplete flip the completion flag, keeping the stored position
func (r *Reconciler) ToggleComplete(lessonID string) bool {
	r.mu.Lock()
	completed := !r.view.Completed[lessonID]
	r.view.Completed[lessonID] = completed
	position := r.view.Progress[lessonID].Position
	r.cache.SaveCompleted(r.view.Completed)
	r.mu.Unlock()

	r.dispatchProgress(lessonID, completed, position)
	return completed
}

// MarkComplete unconditionally mark the lesson done. Idempotent on the
// completion side effect, so the 90% threshold and the end-of-media
// event together produce exactly one remote completion write. The
// position still advances on repeat calls, replaying a finished
// lesson to its end keeps the stored position at the duration
func (r *Reconciler) MarkComplete(lessonID string, position int) {
	r.mu.Lock()
	if r.view.Completed[lessonID] {
		if position > 0 {
			entry := r.view.Progress[lessonID]
			entry.Position = position
			r.view.Progress[lessonID] = entry
			r.cache.SaveProgress(r.view.Progress)
			r.pendingPos.lessonID = lessonID
			r.pendingPos.set = true
		}
		r.mu.Unlock()
		return
	}
	r.view.Completed[lessonID] = true
	entry := r.view.Progress[lessonID]
	entry.IsCompleted = true
	if position > 0 {
		entry.Position = position
	}
	r.view.Progress[lessonID] = entry
	r.cache.SaveCompleted(r.view.Completed)
	r.cache.SaveProgress(r.view.Progress)
	r.mu.Unlock()

	r.dispatchProgress(lessonID, true, entry.Position)
}

// IsCompleted report the completion flag
func (r *Reconciler) IsCompleted(lessonID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view.Completed[lessonID]
}

// SetPosition record the playback position locally. The remote write
// happens on the save interval, on pause and on Close
func (r *Reconciler) SetPosition(lessonID string, position int) {
	r.mu.Lock()
	entry := r.view.Progress[lessonID]
	entry.Position = position
	r.view.Progress[lessonID] = entry
	r.cache.SaveProgress(r.view.Progress)
	r.pendingPos.lessonID = lessonID
	r.pendingPos.set = true
	r.mu.Unlock()
}

// Position last recorded position for the lesson
func (r *Reconciler) Position(lessonID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view.Progress[lessonID].Position
}

// SavePosition record the position and push it remotely right away
func (r *Reconciler) SavePosition(lessonID string, position int) {
	r.SetPosition(lessonID, position)
	r.mu.Lock()
	completed := r.view.Completed[lessonID]
	r.mu.Unlock()
	r.dispatchProgress(lessonID, completed, position)
}

// EditNote update the note locally at once and schedule the remote
// write after the quiet period. Each edit resets the timer, only the
// settled content is sent
func (r *Reconciler) EditNote(lessonID, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.view.Notes[lessonID] = content
	r.cache.SaveNotes(r.view.Notes)

	r.pendingNote.lessonID = lessonID
	r.pendingNote.content = content
	r.pendingNote.set = true
	if r.noteTimer != nil {
		r.noteTimer.Stop()
	}
	r.noteTimer = time.AfterFunc(r.cfg.NoteDebounce, r.flushNote)
	r.setStatus(StatusSaving)
}

func (r *Reconciler) flushNote() {
	r.mu.Lock()
	if !r.pendingNote.set {
		r.mu.Unlock()
		return
	}
	lessonID := r.pendingNote.lessonID
	content := r.pendingNote.content
	r.pendingNote.set = false
	r.mu.Unlock()

	if err := r.api.SaveNote(context.Background(), r.userID, lessonID, content); err != nil {
		r.logger.Warn("Note save failed, content kept locally", zap.Error(err))
		r.setStatus(StatusError)
		return
	}
	r.setStatus(StatusSaved)
}

// AddBookmark insert a timestamp marker for the lesson, keeping the
// list sorted ascending by time. Bookmarks never leave the client
func (r *Reconciler) AddBookmark(lessonID string, seconds int) (client.Bookmark, error) {
	id, err := r.generator.Generate()
	if err != nil {
		return client.Bookmark{}, err
	}
	mark := client.Bookmark{ID: id, Seconds: seconds}

	r.mu.Lock()
	defer r.mu.Unlock()
	marks := append(r.view.Bookmarks[lessonID], mark)
	sort.SliceStable(marks, func(i, j int) bool {
		return marks[i].Seconds < marks[j].Seconds
	})
	r.view.Bookmarks[lessonID] = marks
	r.cache.SaveBookmarks(r.view.Bookmarks)
	return mark, nil
}

// RemoveBookmark delete the marker by ID, unknown IDs are a no-op
func (r *Reconciler) RemoveBookmark(lessonID, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	marks := r.view.Bookmarks[lessonID]
	for i, mark := range marks {
		if mark.ID == id {
			r.view.Bookmarks[lessonID] = append(marks[:i], marks[i+1:]...)
			r.cache.SaveBookmarks(r.view.Bookmarks)
			return
		}
	}
}

// Bookmarks sorted markers for the lesson
func (r *Reconciler) Bookmarks(lessonID string) []client.Bookmark {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]client.Bookmark(nil), r.view.Bookmarks[lessonID]...)
}

// SelectLesson remember the lesson for the next session
func (r *Reconciler) SelectLesson(lessonKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view.LastLesson = lessonKey
	r.cache.SaveLastLesson(lessonKey)
}

// StartAutoSave push the reported position remotely on every save
// interval while playback runs. positionFn returns the current
// position in seconds, zero reports are skipped
func (r *Reconciler) StartAutoSave(lessonID string, positionFn func() int) {
	r.StopAutoSave()
	stop := make(chan struct{})
	r.mu.Lock()
	r.autosaveStop = stop
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(r.cfg.SaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if position := positionFn(); position > 0 {
					r.SavePosition(lessonID, position)
				}
			}
		}
	}()
}

// StopAutoSave cancel the periodic position save
func (r *Reconciler) StopAutoSave() {
	r.mu.Lock()
	if r.autosaveStop != nil {
		close(r.autosaveStop)
		r.autosaveStop = nil
	}
	r.mu.Unlock()
}

// Close flush the pending note and position synchronously, the
// page-teardown path. The local cache already holds everything, so a
// failed flush loses nothing
func (r *Reconciler) Close() {
	r.StopAutoSave()
	r.mu.Lock()
	if r.noteTimer != nil {
		r.noteTimer.Stop()
		r.noteTimer = nil
	}
	r.mu.Unlock()
	r.flushNote()
	r.flushPosition()
}

// flushPosition inline counterpart of dispatchProgress, used on Close
// where a goroutine could be cut off by process exit
func (r *Reconciler) flushPosition() {
	r.mu.Lock()
	if !r.pendingPos.set {
		r.mu.Unlock()
		return
	}
	lessonID := r.pendingPos.lessonID
	r.pendingPos.set = false
	completed := r.view.Completed[lessonID]
	position := r.view.Progress[lessonID].Position
	r.mu.Unlock()

	if err := r.api.UpdateProgress(context.Background(), r.userID, lessonID, completed, position); err != nil {
		r.logger.Warn("Final position save failed, state kept locally", zap.Error(err))
		r.setStatus(StatusError)
		return
	}
	r.setStatus(StatusSaved)
}

// dispatchProgress fire-and-forget remote write, failures are logged
// and reflected in the save status but never roll back local state
func (r *Reconciler) dispatchProgress(lessonID string, completed bool, position int) {
	r.setStatus(StatusSaving)
	go func() {
		if err := r.api.UpdateProgress(context.Background(), r.userID, lessonID, completed, position); err != nil {
			r.logger.Warn("Progress save failed, state kept locally", zap.Error(err))
			r.setStatus(StatusError)
			return
		}
		r.setStatus(StatusSaved)
	}()
}

func (r *Reconciler) setStatus(status SaveStatus) {
	if r.OnSaveStatus != nil {
		r.OnSaveStatus(status)
	}
}
