package viewer

import (
	"context"

	"go.uber.org/zap"

	"github.com/HarshalVankudre/CourseViewer/internal/catalog"
	"github.com/HarshalVankudre/CourseViewer/internal/client"
	infra "github.com/HarshalVankudre/CourseViewer/internal/infrastructure"
	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/driver"
	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/uuid"
	"github.com/HarshalVankudre/CourseViewer/internal/player"
	"github.com/HarshalVankudre/CourseViewer/internal/reconciler"
)

// Session the assembled client side for one course: catalog, cache,
// identity, reconciler and playback controller wired together from
// config. The embedding UI drives the Player and renders the
// reconciler view
type Session struct {
	Course     catalog.Course
	UserID     string
	Reconciler *reconciler.Reconciler
	Player     *player.Player

	logger *zap.Logger
}

// NewSession load the course manifest and wire the client core. A
// manifest failure is fatal, everything after it degrades to
// local-only operation
func NewSession(ctx context.Context, kv driver.KeyValueDB, media player.Media, option *infra.AppConfig, logger *zap.Logger) (*Session, error) {
	loader := catalog.NewLoader(option.Client.Timeout, logger)
	course, err := loader.Load(ctx, option.Client.CourseDataURL)
	if err != nil {
		return nil, err
	}

	cache := client.NewCache(kv, option.Client.CourseID, logger)
	userID, err := cache.UserID(uuid.NewV4Generator())
	if err != nil {
		return nil, err
	}

	api := client.NewSyncAPI(option.Client.APIBaseURL, option.Client.Timeout)
	rec := reconciler.New(cache, api, userID,
		uuid.NewNanoIDGenerator(option.Security.IDLength),
		reconciler.Config{
			NoteDebounce: option.Playback.NoteDebounce,
			SaveInterval: option.Playback.SaveInterval,
		}, logger)
	rec.Load()

	p := player.New(media, rec, cache, course, player.Config{
		AutoAdvance:      option.Playback.AutoAdvance,
		AutoAdvanceDelay: option.Playback.AutoAdvanceDelay,
	}, logger)

	session := &Session{
		Course:     course,
		UserID:     userID,
		Reconciler: rec,
		Player:     p,
		logger:     logger,
	}
	p.OnAdvance = func(next string) {
		session.OpenLesson(next)
	}
	return session, nil
}

// Start reconcile with the server (non-fatal on failure) and open the
// last viewed lesson, falling back to the first one
func (s *Session) Start(ctx context.Context) {
	view, err := s.Reconciler.Sync(ctx)
	if err != nil {
		s.logger.Warn("Starting in local-only mode", zap.Error(err))
	}

	key := view.LastLesson
	if s.Course.FindByKey(key) == nil {
		flat := s.Course.FlatLessons()
		if len(flat) == 0 {
			return
		}
		key = flat[0].Key()
	}
	s.OpenLesson(key)
}

// OpenLesson switch the player to the lesson with the given key,
// unknown keys are ignored
func (s *Session) OpenLesson(key string) {
	lesson := s.Course.FindByKey(key)
	if lesson == nil {
		s.logger.Warn("Unknown lesson key", zap.String("lesson.key", key))
		return
	}
	s.Player.LoadLesson(lesson)
}

// Close flush pending state, the page-teardown path
func (s *Session) Close() {
	s.Player.Close()
	s.Reconciler.Close()
}
