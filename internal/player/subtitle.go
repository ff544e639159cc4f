package player

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cue one subtitle interval
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

var cueTagPattern = regexp.MustCompile(`<[^>]*>|\{[^}]*\}`)

// ParseCues read a WebVTT or SRT cue list into an ordered slice. Both
// formats reduce to the same shape here, a timing line containing
// "-->" followed by text lines until a blank line. Counters, headers
// and NOTE blocks are skipped, malformed timing lines abort the parse
func ParseCues(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	var cues []Cue
	lineNo := 0
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		lineNo++
		if !strings.Contains(line, "-->") {
			continue
		}

		parts := strings.SplitN(line, "-->", 2)
		start, err := parseCueTime(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		// settings like "align:start" may trail the end time
		endField := strings.Fields(strings.TrimSpace(parts[1]))
		if len(endField) == 0 {
			return nil, fmt.Errorf("line %d: missing end time", lineNo)
		}
		end, err := parseCueTime(endField[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		var text []string
		for scanner.Scan() {
			lineNo++
			cueLine := strings.TrimSpace(scanner.Text())
			if cueLine == "" {
				break
			}
			text = append(text, cueTagPattern.ReplaceAllString(cueLine, ""))
		}
		cues = append(cues, Cue{
			Start: start,
			End:   end,
			Text:  strings.Join(text, "\n"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].Start < cues[j].Start
	})
	return cues, nil
}

// parseCueTime accept HH:MM:SS.mmm, MM:SS.mmm and the SRT comma
// millisecond variant
func parseCueTime(raw string) (time.Duration, error) {
	raw = strings.Replace(raw, ",", ".", 1)
	segments := strings.Split(raw, ":")
	if len(segments) < 2 || len(segments) > 3 {
		return 0, fmt.Errorf("bad cue time %q", raw)
	}

	var hours int64
	if len(segments) == 3 {
		var err error
		hours, err = strconv.ParseInt(segments[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad cue time %q", raw)
		}
		segments = segments[1:]
	}
	minutes, err := strconv.ParseInt(segments[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad cue time %q", raw)
	}
	seconds, err := strconv.ParseFloat(segments[1], 64)
	if err != nil {
		return 0, fmt.Errorf("bad cue time %q", raw)
	}

	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	return total, nil
}

// ActiveCue the cue whose interval contains at, binary search over the
// start-sorted list
func ActiveCue(cues []Cue, at time.Duration) (Cue, bool) {
	i := sort.Search(len(cues), func(i int) bool {
		return cues[i].Start > at
	})
	if i > 0 && cues[i-1].End > at {
		return cues[i-1], true
	}
	return Cue{}, false
}
