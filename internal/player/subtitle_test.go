package player

import (
	"strings"
	"testing"
	"time"
)

const vttSample = `WEBVTT

NOTE this block is ignored

1
00:00:01.000 --> 00:00:04.000
<v Narrator>Welcome to the course

00:00:05.500 --> 00:00:08.000
Part one
continues here

01:02:03.000 --> 01:02:04.500
Late cue
`

const srtSample = `1
00:00:01,000 --> 00:00:04,000
{b}Welcome{/b}

2
00:01:00,500 --> 00:01:02,000
Second line
`

func TestParseCuesVTT(t *testing.T) {
	cues, err := ParseCues(strings.NewReader(vttSample))
	if err != nil {
		t.Fatalf("ParseCues failed: %s", err)
	}
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}
	if cues[0].Text != "Welcome to the course" {
		t.Fatalf("expected tags stripped, got %q", cues[0].Text)
	}
	if cues[1].Text != "Part one\ncontinues here" {
		t.Fatalf("expected multi-line text joined, got %q", cues[1].Text)
	}
	if cues[1].Start != 5500*time.Millisecond {
		t.Fatalf("expected 5.5s start, got %s", cues[1].Start)
	}
	if want := time.Hour + 2*time.Minute + 3*time.Second; cues[2].Start != want {
		t.Fatalf("expected hour-form timestamp, got %s", cues[2].Start)
	}
}

func TestParseCuesSRT(t *testing.T) {
	cues, err := ParseCues(strings.NewReader(srtSample))
	if err != nil {
		t.Fatalf("ParseCues failed: %s", err)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Text != "Welcome" {
		t.Fatalf("expected braces stripped, got %q", cues[0].Text)
	}
	if want := time.Minute + 500*time.Millisecond; cues[1].Start != want {
		t.Fatalf("expected comma millis parsed, got %s", cues[1].Start)
	}
}

func TestParseCuesByteOrderMark(t *testing.T) {
	cues, err := ParseCues(strings.NewReader("\uFEFFWEBVTT\n\n00:00:01.000 --> 00:00:02.000\nfirst\n"))
	if err != nil {
		t.Fatalf("ParseCues failed: %s", err)
	}
	if len(cues) != 1 || cues[0].Text != "first" {
		t.Fatalf("expected BOM-prefixed file parsed, got %+v", cues)
	}
}

func TestParseCuesBadTimestamp(t *testing.T) {
	_, err := ParseCues(strings.NewReader("garbage --> 00:00:02.000\ntext\n"))
	if err == nil {
		t.Fatalf("expected error for malformed timing line")
	}
}

func TestActiveCue(t *testing.T) {
	cues := []Cue{
		{Start: 1 * time.Second, End: 4 * time.Second, Text: "a"},
		{Start: 5 * time.Second, End: 8 * time.Second, Text: "b"},
		{Start: 10 * time.Second, End: 12 * time.Second, Text: "c"},
	}

	cases := []struct {
		at   time.Duration
		want string
		ok   bool
	}{
		{0, "", false},
		{1 * time.Second, "a", true},
		{3 * time.Second, "a", true},
		{4500 * time.Millisecond, "", false}, // gap between cues
		{7 * time.Second, "b", true},
		{11 * time.Second, "c", true},
		{13 * time.Second, "", false},
	}
	for _, tc := range cases {
		cue, ok := ActiveCue(cues, tc.at)
		if ok != tc.ok || cue.Text != tc.want {
			t.Fatalf("at %s: expected %q/%v, got %q/%v", tc.at, tc.want, tc.ok, cue.Text, ok)
		}
	}
}
