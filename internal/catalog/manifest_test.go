package catalog

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestNaturalLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"2 intro", "10 final", true},
		{"10 final", "2 intro", false},
		{"1 a", "1 b", true},
		{"abc", "abd", true},
		{"a", "ab", true},
		{"Chapter 2", "chapter 10", true},
	}
	for _, tc := range cases {
		if got := NaturalLess(tc.a, tc.b); got != tc.want {
			t.Fatalf("NaturalLess(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %s", path, err)
	}
}

func TestGenerateManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2 Advanced", "1 deep-dive.mp4"), "")
	writeFile(t, filepath.Join(root, "2 Advanced", "1 deep-dive.vtt"), "WEBVTT\n")
	writeFile(t, filepath.Join(root, "10 Extras", "1 bonus.mp4"), "")
	writeFile(t, filepath.Join(root, "1 Basics", "1 intro.mp4"), "")
	writeFile(t, filepath.Join(root, "1 Basics", "2 setup.html"), "<p>setup</p>")
	writeFile(t, filepath.Join(root, "1 Basics", "1 intro slides.pdf"), "")
	writeFile(t, filepath.Join(root, "1 Basics", "cheatsheet.zip"), "")
	writeFile(t, filepath.Join(root, "notes", "ignored.mp4"), "") // not a numbered chapter

	generator := NewManifestGenerator("http://cdn/course/", zap.NewNop())
	course, err := generator.Generate(root)
	if err != nil {
		t.Fatalf("Generate failed: %s", err)
	}

	if len(course) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(course))
	}
	if course[0].Title != "1 Basics" || course[1].Title != "2 Advanced" || course[2].Title != "10 Extras" {
		t.Fatalf("expected natural chapter order, got %q %q %q", course[0].Title, course[1].Title, course[2].Title)
	}

	basics := course[0]
	if len(basics.Lessons) != 2 {
		t.Fatalf("expected 2 lessons in basics, got %d", len(basics.Lessons))
	}
	intro := basics.Lessons[0]
	if intro.Type != TypeVideo {
		t.Fatalf("expected video lesson, got %q", intro.Type)
	}
	if intro.URL != "http://cdn/course/1%20Basics/1%20intro.mp4" {
		t.Fatalf("expected escaped asset URL, got %q", intro.URL)
	}
	if len(intro.Resources) != 2 {
		// the matching pdf plus the unmatched zip attached to the first lesson
		t.Fatalf("expected 2 resources on intro, got %d", len(intro.Resources))
	}
	setup := basics.Lessons[1]
	if setup.Type != TypeText || setup.Content != "<p>setup</p>" {
		t.Fatalf("expected inlined text content, got %+v", setup)
	}

	advanced := course[1]
	if advanced.Lessons[0].Subtitle == "" {
		t.Fatalf("expected prefix-matched subtitle")
	}
}

func TestWriteManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "1 Basics", "1 intro.mp4"), "")

	generator := NewManifestGenerator("http://cdn", zap.NewNop())
	output := filepath.Join(root, "data.json")
	if err := generator.WriteManifest(root, output); err != nil {
		t.Fatalf("WriteManifest failed: %s", err)
	}

	data, err := ioutil.ReadFile(output)
	if err != nil {
		t.Fatalf("read manifest: %s", err)
	}
	if len(data) == 0 || data[0] != '[' {
		t.Fatalf("expected JSON array output, got %q", string(data))
	}
}
