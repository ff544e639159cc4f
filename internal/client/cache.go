package client

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/driver"
	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/uuid"
	"github.com/HarshalVankudre/CourseViewer/internal/progress"
)

// SchemaVersion bumped when the cached blob layout changes; blobs
// with a different version are treated as absent
const SchemaVersion = 1

// cache key kinds, namespaced per course except the global ones
const (
	kindCompleted  = "completed"
	kindNotes      = "notes"
	kindProgress   = "progress"
	kindBookmarks  = "bookmarks"
	kindLastLesson = "last_lesson"

	keyUserID         = "viewer_user_id"
	keyPlayerSettings = "viewer_player_settings"
)

// PlayerSettings playback preferences shared across courses
type PlayerSettings struct {
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
	Speed  float64 `json:"speed"`
}

// Bookmark timestamp marker within a video lesson, local only
type Bookmark struct {
	ID      string `json:"id"`
	Seconds int    `json:"seconds"`
}

type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

// Cache local mirror of the per-user state, read and written
// synchronously so a reload never races the network round trip.
// Partitioned per course by key prefix, single writer per key
type Cache struct {
	kv       driver.KeyValueDB
	courseID string
	logger   *zap.Logger
}

// NewCache create a cache namespaced by courseID
func NewCache(kv driver.KeyValueDB, courseID string, logger *zap.Logger) *Cache {
	return &Cache{
		kv:       kv,
		courseID: courseID,
		logger:   logger,
	}
}

func (c *Cache) key(kind string) string {
	return c.courseID + "_" + kind
}

func (c *Cache) read(key string, out interface{}) bool {
	raw, err := c.kv.Get(key)
	if err != nil {
		if err != driver.ErrKeyNotFound {
			c.logger.Warn("Cache read failed", zap.String("cache.key", key), zap.Error(err))
		}
		return false
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.V != SchemaVersion {
		// unknown layout, ignore rather than guess
		return false
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		c.logger.Warn("Cache blob corrupted", zap.String("cache.key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) write(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Cache encode failed", zap.String("cache.key", key), zap.Error(err))
		return
	}
	env, _ := json.Marshal(envelope{V: SchemaVersion, Data: data})
	if err := c.kv.Set(key, string(env)); err != nil {
		c.logger.Warn("Cache write failed", zap.String("cache.key", key), zap.Error(err))
	}
}

// Completed cached completion flags, empty map when absent
func (c *Cache) Completed() map[string]bool {
	result := make(map[string]bool)
	c.read(c.key(kindCompleted), &result)
	return result
}

// SaveCompleted persist the completion map
func (c *Cache) SaveCompleted(completed map[string]bool) {
	c.write(c.key(kindCompleted), completed)
}

// Notes cached note contents keyed by lesson
func (c *Cache) Notes() map[string]string {
	result := make(map[string]string)
	c.read(c.key(kindNotes), &result)
	return result
}

// SaveNotes persist the notes map
func (c *Cache) SaveNotes(notes map[string]string) {
	c.write(c.key(kindNotes), notes)
}

// Progress cached per-lesson playback positions
func (c *Cache) Progress() map[string]progress.ProgressEntry {
	result := make(map[string]progress.ProgressEntry)
	c.read(c.key(kindProgress), &result)
	return result
}

// SaveProgress persist the progress map
func (c *Cache) SaveProgress(progressMap map[string]progress.ProgressEntry) {
	c.write(c.key(kindProgress), progressMap)
}

// Bookmarks cached per-lesson bookmark lists, each sorted ascending
// by time
func (c *Cache) Bookmarks() map[string][]Bookmark {
	result := make(map[string][]Bookmark)
	c.read(c.key(kindBookmarks), &result)
	return result
}

// SaveBookmarks persist the bookmark map
func (c *Cache) SaveBookmarks(bookmarks map[string][]Bookmark) {
	c.write(c.key(kindBookmarks), bookmarks)
}

// LastLesson key of the last viewed lesson, empty when none
func (c *Cache) LastLesson() string {
	var key string
	c.read(c.key(kindLastLesson), &key)
	return key
}

// SaveLastLesson remember the current lesson for the next session
func (c *Cache) SaveLastLesson(lessonKey string) {
	c.write(c.key(kindLastLesson), lessonKey)
}

// PlayerSettings stored playback preferences, defaults when absent
func (c *Cache) PlayerSettings() PlayerSettings {
	settings := PlayerSettings{Volume: 1, Speed: 1}
	c.read(keyPlayerSettings, &settings)
	return settings
}

// SavePlayerSettings persist playback preferences globally
func (c *Cache) SavePlayerSettings(settings PlayerSettings) {
	c.write(keyPlayerSettings, settings)
}

// UserID return the opaque viewer token, generating and storing one
// on first use. The token is never validated server-side
func (c *Cache) UserID(generator uuid.Generator) (string, error) {
	var id string
	if c.read(keyUserID, &id) && id != "" {
		return id, nil
	}
	id, err := generator.Generate()
	if err != nil {
		return "", err
	}
	c.write(keyUserID, id)
	return id, nil
}
