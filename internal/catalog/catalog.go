package catalog

// lesson types
const (
	TypeVideo = "video"
	TypeText  = "text"
)

// Resource downloadable attachment of a lesson
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// Lesson a single playable or readable unit of course content.
// Video lessons are identified by URL, text lessons by Filename
type Lesson struct {
	Title     string      `json:"title"`
	URL       string      `json:"url,omitempty"`
	Filename  string      `json:"filename"`
	Type      string      `json:"type"`
	Content   string      `json:"content,omitempty"`
	Subtitle  string      `json:"subtitle,omitempty"`
	Resources []*Resource `json:"resources"`
}

// Key lesson identity, stable for the lifetime of a course
func (l *Lesson) Key() string {
	if l.Type == TypeVideo {
		return l.URL
	}
	return l.Filename
}

// Chapter ordered group of lessons
type Chapter struct {
	Title   string    `json:"title"`
	Lessons []*Lesson `json:"lessons"`
}

// Course ordered chapter list, immutable once loaded
type Course []*Chapter

// FlatLessons all lessons in course order
func (c Course) FlatLessons() []*Lesson {
	var result []*Lesson
	for _, chapter := range c {
		result = append(result, chapter.Lessons...)
	}
	return result
}

// TotalLessons lesson count across chapters
func (c Course) TotalLessons() int {
	n := 0
	for _, chapter := range c {
		n += len(chapter.Lessons)
	}
	return n
}

// FindByKey locate a lesson by its URL or filename, nil when absent
func (c Course) FindByKey(key string) *Lesson {
	if key == "" {
		return nil
	}
	for _, chapter := range c {
		for _, lesson := range chapter.Lessons {
			if lesson.URL == key || lesson.Filename == key {
				return lesson
			}
		}
	}
	return nil
}

// IndexOf position of a lesson in the flattened order, -1 when absent
func (c Course) IndexOf(lesson *Lesson) int {
	if lesson == nil {
		return -1
	}
	for i, l := range c.FlatLessons() {
		if l.Key() == lesson.Key() {
			return i
		}
	}
	return -1
}
