package catalog

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var (
	videoPattern    = regexp.MustCompile(`(?i)\.(mp4|mkv|mov|webm)$`)
	textPattern     = regexp.MustCompile(`(?i)\.(html|txt)$`)
	subtitlePattern = regexp.MustCompile(`(?i)\.(vtt|srt)$`)
	resourcePattern = regexp.MustCompile(`(?i)\.(pdf|zip|rar|7z)$`)
	chapterPattern  = regexp.MustCompile(`^\d+`)
)

// ManifestGenerator builds the course manifest from a directory tree.
// Chapters are numbered directories, lessons the video and text files
// inside them, both in natural order
type ManifestGenerator struct {
	BaseURL string // public URL prefix the assets are served from
	logger  *zap.Logger
}

// NewManifestGenerator create a generator rooted at the given asset base URL
func NewManifestGenerator(baseURL string, logger *zap.Logger) *ManifestGenerator {
	return &ManifestGenerator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Generate scan courseRoot and build the chapter list
func (g *ManifestGenerator) Generate(courseRoot string) (Course, error) {
	entries, err := ioutil.ReadDir(courseRoot)
	if err != nil {
		return nil, fmt.Errorf("read course root: %w", err)
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() && chapterPattern.MatchString(entry.Name()) {
			folders = append(folders, entry.Name())
		}
	}
	sort.Slice(folders, func(i, j int) bool {
		return NaturalLess(folders[i], folders[j])
	})

	var course Course
	for _, folder := range folders {
		chapter, err := g.buildChapter(courseRoot, folder)
		if err != nil {
			return nil, err
		}
		if chapter != nil {
			course = append(course, chapter)
		}
	}
	return course, nil
}

// WriteManifest generate and write the manifest JSON to outputPath
func (g *ManifestGenerator) WriteManifest(courseRoot, outputPath string) error {
	course, err := g.Generate(courseRoot)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(course, "", "  ")
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(outputPath, data, 0644); err != nil {
		return err
	}
	g.logger.Info("Generated manifest",
		zap.String("file.path", outputPath),
		zap.Int("course.chapters", len(course)),
	)
	return nil
}

func (g *ManifestGenerator) buildChapter(courseRoot, folder string) (*Chapter, error) {
	entries, err := ioutil.ReadDir(filepath.Join(courseRoot, folder))
	if err != nil {
		return nil, fmt.Errorf("read chapter %s: %w", folder, err)
	}

	var lessonFiles, subtitles, resources []string
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
		case videoPattern.MatchString(name), textPattern.MatchString(name):
			lessonFiles = append(lessonFiles, name)
		case subtitlePattern.MatchString(name):
			subtitles = append(subtitles, name)
		case resourcePattern.MatchString(name):
			resources = append(resources, name)
		}
	}
	if len(lessonFiles) == 0 {
		return nil, nil
	}
	sort.Slice(lessonFiles, func(i, j int) bool {
		return NaturalLess(lessonFiles[i], lessonFiles[j])
	})

	assigned := make(map[string]bool)
	var lessons []*Lesson
	for _, file := range lessonFiles {
		lesson := g.buildLesson(courseRoot, folder, file, subtitles, resources, assigned)
		lessons = append(lessons, lesson)
	}

	// resources that matched no lesson still belong to the chapter,
	// attach them to the first lesson
	for _, res := range resources {
		if !assigned[res] {
			lessons[0].Resources = append(lessons[0].Resources, &Resource{
				Title: res,
				URL:   g.assetURL(folder, res),
				Type:  fileExt(res),
			})
		}
	}

	return &Chapter{Title: folder, Lessons: lessons}, nil
}

func (g *ManifestGenerator) buildLesson(courseRoot, folder, file string, subtitles, resources []string, assigned map[string]bool) *Lesson {
	isVideo := videoPattern.MatchString(file)
	baseName := strings.TrimSuffix(file, filepath.Ext(file))

	lesson := &Lesson{
		Title:     baseName,
		Filename:  file,
		Type:      TypeText,
		Resources: []*Resource{},
	}
	if isVideo {
		lesson.Type = TypeVideo
		lesson.URL = g.assetURL(folder, file)
		for _, sub := range subtitles {
			if strings.HasPrefix(sub, baseName) {
				lesson.Subtitle = g.assetURL(folder, sub)
				break
			}
		}
	} else if content, err := ioutil.ReadFile(filepath.Join(courseRoot, folder, file)); err == nil {
		lesson.Content = string(content)
	} else {
		g.logger.Warn("Could not read lesson content", zap.String("file.name", file))
	}

	for _, res := range resources {
		if strings.Contains(res, baseName) {
			assigned[res] = true
			lesson.Resources = append(lesson.Resources, &Resource{
				Title: res,
				URL:   g.assetURL(folder, res),
				Type:  fileExt(res),
			})
		}
	}
	return lesson
}

func (g *ManifestGenerator) assetURL(folder, file string) string {
	return g.BaseURL + "/" + url.PathEscape(folder) + "/" + url.PathEscape(file)
}

func fileExt(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

// NaturalLess ordering that compares embedded digit runs numerically,
// so "2 intro" sorts before "10 final"
func NaturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			an, arest := takeNumber(a)
			bn, brest := takeNumber(b)
			if an != bn {
				return an < bn
			}
			a, b = arest, brest
			continue
		}
		ac, bc := lower(a[0]), lower(b[0])
		if ac != bc {
			return ac < bc
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func takeNumber(s string) (int64, string) {
	var n int64
	i := 0
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + int64(s[i]-'0')
		i++
	}
	return n, s[i:]
}
