package player

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HarshalVankudre/CourseViewer/internal/catalog"
	"github.com/HarshalVankudre/CourseViewer/internal/client"
	"github.com/HarshalVankudre/CourseViewer/internal/reconciler"
)

// State playback lifecycle phase
type State int

// lifecycle states, Buffering is an overlay flag rather than a phase
// so a rebuffer during playback does not lose the playing/paused
// distinction
const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

// Speeds the discrete playback rate set, ascending
var Speeds = []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}

// completionThreshold fraction of the duration past which a lesson
// counts as done even without an ended event
const completionThreshold = 0.9

// Media the controlled playback surface. Implementations deliver
// events back through the On* methods of Player from a single
// goroutine
type Media interface {
	Play() error
	Pause()
	Seek(seconds float64)
	Position() float64
	Duration() float64
	SetRate(rate float64)
	SetVolume(volume float64)
	SetMuted(muted bool)
	// SetNativeCaptions toggles the element's own caption track.
	// Kept off while cues are rendered here so exactly one subtitle
	// renderer is active
	SetNativeCaptions(enabled bool)
}

// Config playback behavior knobs
type Config struct {
	AutoAdvance      bool
	AutoAdvanceDelay time.Duration
}

// Player the controller that owns the media lifecycle for one course.
// It translates commands into Media calls and feeds progress and
// completion into the reconciler
type Player struct {
	mu     sync.Mutex
	media  Media
	rec    *reconciler.Reconciler
	cache  *client.Cache
	course catalog.Course
	cfg    Config
	logger *zap.Logger

	lesson        *catalog.Lesson
	state         State
	buffering     bool
	resumePending bool
	resumeAt      int
	settings      client.PlayerSettings

	cues       []Cue
	captionsOn bool
	activeCue  string

	fullscreen bool
	pip        bool

	advanceTimer *time.Timer

	// OnStateChange observes phase transitions, may be nil
	OnStateChange func(State)
	// OnCue publishes the overlay text, empty string clears it
	OnCue func(string)
	// OnAdvance requests navigation to the next lesson key
	OnAdvance func(nextKey string)
	// OnPreloadNext hints that the next lesson may be prefetched
	OnPreloadNext func(nextKey string)
}

// New create a player over media for the given course
func New(media Media, rec *reconciler.Reconciler, cache *client.Cache, course catalog.Course, cfg Config, logger *zap.Logger) *Player {
	if cfg.AutoAdvanceDelay <= 0 {
		cfg.AutoAdvanceDelay = 1500 * time.Millisecond
	}
	return &Player{
		media:    media,
		rec:      rec,
		cache:    cache,
		course:   course,
		cfg:      cfg,
		logger:   logger,
		state:    StateIdle,
		settings: cache.PlayerSettings(),
	}
}

// State current phase
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Buffering whether the media is stalled waiting for data
func (p *Player) Buffering() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffering
}

// ResumePending whether a resume/start-over decision is being awaited
func (p *Player) ResumePending() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resumeAt, p.resumePending
}

// Lesson the loaded lesson, nil before the first LoadLesson
func (p *Player) Lesson() *catalog.Lesson {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lesson
}

// LoadLesson switch to a lesson. Any pending auto-advance is
// cancelled, the periodic position save restarts on the next play
func (p *Player) LoadLesson(lesson *catalog.Lesson) {
	p.CancelAutoAdvance()
	p.rec.StopAutoSave()

	p.mu.Lock()
	p.lesson = lesson
	p.cues = nil
	p.activeCue = ""
	p.resumePending = false
	p.resumeAt = 0
	changed := p.setStateLocked(StateLoading)
	p.mu.Unlock()

	if changed {
		p.notifyState(StateLoading)
	}
	p.rec.SelectLesson(lesson.Key())
	p.publishCue("")

	if p.OnPreloadNext != nil {
		if next := p.nextLessonKey(); next != "" {
			p.OnPreloadNext(next)
		}
	}
}

// SetCues install the parsed cue list and suppress the element's own
// rendering
func (p *Player) SetCues(cues []Cue) {
	p.mu.Lock()
	p.cues = cues
	p.mu.Unlock()
	p.media.SetNativeCaptions(false)
}

// LoadCues parse subtitle text and install the cue list
func (p *Player) LoadCues(text string) error {
	cues, err := ParseCues(strings.NewReader(text))
	if err != nil {
		return err
	}
	p.SetCues(cues)
	return nil
}

// OnLoadedMetadata media reported its duration. Stored settings are
// applied here since rate and volume reset with the source. When a
// saved position exists the player stays paused and surfaces a
// resume/start-over choice instead of seeking silently
func (p *Player) OnLoadedMetadata() {
	p.mu.Lock()
	if p.lesson == nil {
		p.mu.Unlock()
		return
	}

	p.media.SetVolume(p.settings.Volume)
	p.media.SetMuted(p.settings.Muted)
	p.media.SetRate(p.settings.Speed)

	saved := p.rec.Position(p.lesson.Key())
	if saved > 0 {
		p.resumePending = true
		p.resumeAt = saved
	}
	changed := p.setStateLocked(StatePaused)
	p.mu.Unlock()

	if changed {
		p.notifyState(StatePaused)
	}
}

// Resume continue from the saved position
func (p *Player) Resume() {
	p.mu.Lock()
	if !p.resumePending {
		p.mu.Unlock()
		return
	}
	p.resumePending = false
	at := p.resumeAt
	p.mu.Unlock()

	p.media.Seek(float64(at))
	p.Play()
}

// StartOver play from zero, discarding the saved position decision.
// Bookmarks are untouched
func (p *Player) StartOver() {
	p.mu.Lock()
	p.resumePending = false
	p.mu.Unlock()

	p.media.Seek(0)
	p.Play()
}

// Play start or continue playback. Refused while a resume/start-over
// decision is pending, Resume or StartOver must settle it first
func (p *Player) Play() {
	p.mu.Lock()
	if p.lesson == nil || p.state == StatePlaying || p.resumePending {
		p.mu.Unlock()
		return
	}
	key := p.lesson.Key()
	p.mu.Unlock()

	if err := p.media.Play(); err != nil {
		p.logger.Warn("Play rejected by media", zap.Error(err))
		return
	}

	p.mu.Lock()
	changed := p.setStateLocked(StatePlaying)
	p.mu.Unlock()

	if changed {
		p.notifyState(StatePlaying)
	}
	p.rec.StartAutoSave(key, func() int {
		return int(p.media.Position())
	})
}

// Pause halt playback and push the position immediately
func (p *Player) Pause() {
	p.mu.Lock()
	if p.state != StatePlaying {
		p.mu.Unlock()
		return
	}
	key := p.lesson.Key()
	changed := p.setStateLocked(StatePaused)
	p.mu.Unlock()

	if changed {
		p.notifyState(StatePaused)
	}
	p.media.Pause()
	p.rec.StopAutoSave()
	if position := int(p.media.Position()); position > 0 {
		p.rec.SavePosition(key, position)
	}
}

// TogglePlay flip between playing and paused
func (p *Player) TogglePlay() {
	if p.State() == StatePlaying {
		p.Pause()
		return
	}
	p.Play()
}

// OnTimeUpdate periodic position report from the media. Records the
// position, checks the completion threshold and refreshes the cue
// overlay
func (p *Player) OnTimeUpdate(position float64) {
	p.mu.Lock()
	if p.lesson == nil {
		p.mu.Unlock()
		return
	}
	key := p.lesson.Key()
	cues := p.cues
	captionsOn := p.captionsOn
	p.mu.Unlock()

	p.rec.SetPosition(key, int(position))

	if duration := p.media.Duration(); duration > 0 && position >= duration*completionThreshold {
		p.completeLesson(key, int(position))
	}

	if captionsOn && len(cues) > 0 {
		text := ""
		if cue, ok := ActiveCue(cues, time.Duration(position*float64(time.Second))); ok {
			text = cue.Text
		}
		p.publishCue(text)
	}
}

// OnEnded media reached the end. Marks the lesson complete with the
// full duration as position and schedules auto-advance when enabled
func (p *Player) OnEnded() {
	p.mu.Lock()
	if p.lesson == nil {
		p.mu.Unlock()
		return
	}
	key := p.lesson.Key()
	changed := p.setStateLocked(StateEnded)
	p.mu.Unlock()

	if changed {
		p.notifyState(StateEnded)
	}
	p.rec.StopAutoSave()
	p.completeLesson(key, int(p.media.Duration()))

	if !p.cfg.AutoAdvance {
		return
	}
	next := p.nextLessonKey()
	if next == "" {
		return
	}
	p.mu.Lock()
	if p.advanceTimer != nil {
		p.advanceTimer.Stop()
	}
	p.advanceTimer = time.AfterFunc(p.cfg.AutoAdvanceDelay, func() {
		if p.OnAdvance != nil {
			p.OnAdvance(next)
		}
	})
	p.mu.Unlock()
}

// CancelAutoAdvance drop a scheduled advance, the user navigated first
func (p *Player) CancelAutoAdvance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.advanceTimer != nil {
		p.advanceTimer.Stop()
		p.advanceTimer = nil
	}
}

// OnWaiting media stalled on data
func (p *Player) OnWaiting() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffering = true
}

// OnPlaying media recovered from a stall
func (p *Player) OnPlaying() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffering = false
}

// completeLesson fires the preload hint alongside the (idempotent)
// completion so the next source can warm up before auto-advance
func (p *Player) completeLesson(key string, position int) {
	first := !p.rec.IsCompleted(key)
	p.rec.MarkComplete(key, position)
	if first && p.OnPreloadNext != nil {
		if next := p.nextLessonKey(); next != "" {
			p.OnPreloadNext(next)
		}
	}
}

func (p *Player) nextLessonKey() string {
	p.mu.Lock()
	lesson := p.lesson
	p.mu.Unlock()

	index := p.course.IndexOf(lesson)
	flat := p.course.FlatLessons()
	for i := index + 1; i < len(flat); i++ {
		if flat[i].Type == catalog.TypeVideo {
			return flat[i].Key()
		}
	}
	return ""
}

// SeekTo absolute seek, clamped to [0, duration]
func (p *Player) SeekTo(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if duration := p.media.Duration(); duration > 0 && seconds > duration {
		seconds = duration
	}
	p.media.Seek(seconds)
}

// SeekBy relative seek in seconds, negative rewinds
func (p *Player) SeekBy(delta float64) {
	p.SeekTo(p.media.Position() + delta)
}

// JumpToFraction digit shortcut, 0 through 9 map to 0% through 90%
func (p *Player) JumpToFraction(digit int) {
	if digit < 0 || digit > 9 {
		return
	}
	if duration := p.media.Duration(); duration > 0 {
		p.media.Seek(duration * float64(digit) / 10)
	}
}

// SetVolume clamp to [0,1] and persist. Raising the volume above zero
// unmutes, matching what a viewer reaching for the volume expects
func (p *Player) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	p.mu.Lock()
	p.settings.Volume = volume
	unmute := volume > 0 && p.settings.Muted
	if unmute {
		p.settings.Muted = false
	}
	settings := p.settings
	p.mu.Unlock()

	p.media.SetVolume(volume)
	if unmute {
		p.media.SetMuted(false)
	}
	p.cache.SavePlayerSettings(settings)
}

// AdjustVolume relative volume change
func (p *Player) AdjustVolume(delta float64) {
	p.mu.Lock()
	volume := p.settings.Volume
	p.mu.Unlock()
	p.SetVolume(volume + delta)
}

// ToggleMute flip mute and persist
func (p *Player) ToggleMute() bool {
	p.mu.Lock()
	p.settings.Muted = !p.settings.Muted
	muted := p.settings.Muted
	settings := p.settings
	p.mu.Unlock()

	p.media.SetMuted(muted)
	p.cache.SavePlayerSettings(settings)
	return muted
}

// SetSpeed apply a rate from the discrete set, others are ignored
func (p *Player) SetSpeed(rate float64) {
	if speedIndex(rate) < 0 {
		return
	}
	p.mu.Lock()
	p.settings.Speed = rate
	settings := p.settings
	p.mu.Unlock()

	p.media.SetRate(rate)
	p.cache.SavePlayerSettings(settings)
}

// CycleSpeed step through the discrete set, clamped at the ends
func (p *Player) CycleSpeed(step int) float64 {
	p.mu.Lock()
	current := p.settings.Speed
	p.mu.Unlock()

	index := speedIndex(current)
	if index < 0 {
		index = speedIndex(1)
	}
	index += step
	if index < 0 {
		index = 0
	}
	if index >= len(Speeds) {
		index = len(Speeds) - 1
	}
	p.SetSpeed(Speeds[index])
	return Speeds[index]
}

func speedIndex(rate float64) int {
	for i, s := range Speeds {
		if s == rate {
			return i
		}
	}
	return -1
}

// ToggleCaptions flip the overlay renderer. The native track stays
// suppressed either way
func (p *Player) ToggleCaptions() bool {
	p.mu.Lock()
	p.captionsOn = !p.captionsOn
	on := p.captionsOn
	p.mu.Unlock()

	p.media.SetNativeCaptions(false)
	if !on {
		p.publishCue("")
	}
	return on
}

// ToggleFullscreen flip the tracked fullscreen flag
func (p *Player) ToggleFullscreen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fullscreen = !p.fullscreen
	return p.fullscreen
}

// TogglePiP flip the tracked picture-in-picture flag
func (p *Player) TogglePiP() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pip = !p.pip
	return p.pip
}

// AddBookmark mark the current position
func (p *Player) AddBookmark() (client.Bookmark, error) {
	p.mu.Lock()
	if p.lesson == nil {
		p.mu.Unlock()
		return client.Bookmark{}, nil
	}
	key := p.lesson.Key()
	p.mu.Unlock()
	return p.rec.AddBookmark(key, int(p.media.Position()))
}

// RemoveBookmark delete a marker from the loaded lesson
func (p *Player) RemoveBookmark(id string) {
	p.mu.Lock()
	if p.lesson == nil {
		p.mu.Unlock()
		return
	}
	key := p.lesson.Key()
	p.mu.Unlock()
	p.rec.RemoveBookmark(key, id)
}

// Close stop timers and record the final position. The reconciler's
// own Close pushes it remotely in the same synchronous teardown
func (p *Player) Close() {
	p.CancelAutoAdvance()
	p.mu.Lock()
	lesson := p.lesson
	state := p.state
	p.mu.Unlock()

	p.rec.StopAutoSave()
	if lesson != nil && state == StatePlaying {
		if position := int(p.media.Position()); position > 0 {
			p.rec.SetPosition(lesson.Key(), position)
		}
	}
}

// setStateLocked record the transition, the caller notifies after
// releasing the lock so observers may read player state freely
func (p *Player) setStateLocked(state State) bool {
	if p.state == state {
		return false
	}
	p.state = state
	return true
}

func (p *Player) notifyState(state State) {
	if p.OnStateChange != nil {
		p.OnStateChange(state)
	}
}

func (p *Player) publishCue(text string) {
	p.mu.Lock()
	if p.activeCue == text {
		p.mu.Unlock()
		return
	}
	p.activeCue = text
	p.mu.Unlock()
	if p.OnCue != nil {
		p.OnCue(text)
	}
}
