package lyrics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Line is one timed lyric line.
type Line struct {
	At   time.Duration
	Text string
}

// Index answers "which line is active at position p" for a parsed set of
// timed lines. Lines are sorted ascending and timestamps are unique.
type Index struct {
	lines []Line
}

// Parse builds an Index from LRC text ("[MM:SS.xx] text", hours optional).
// Malformed lines are skipped. Duplicate timestamps keep the first
// occurrence. Lines without text (instrumental gap markers) are dropped.
func Parse(raw string) *Index {
	ix := &Index{}
	if raw == "" {
		return ix
	}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		timePart, text := splitLrcLine(trimmed)
		if timePart == "" || text == "" {
			continue
		}

		at, err := parseLrcTime(timePart)
		if err != nil {
			continue
		}

		ix.lines = append(ix.lines, Line{At: at, Text: text})
	}

	sort.SliceStable(ix.lines, func(a, b int) bool {
		return ix.lines[a].At < ix.lines[b].At
	})

	deduped := ix.lines[:0]
	for i, l := range ix.lines {
		if i > 0 && l.At == deduped[len(deduped)-1].At {
			continue
		}
		deduped = append(deduped, l)
	}
	ix.lines = deduped

	return ix
}

func (ix *Index) Empty() bool {
	return ix == nil || len(ix.lines) == 0
}

func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.lines)
}

func (ix *Index) Lines() []Line {
	if ix == nil {
		return nil
	}
	return ix.lines
}

// ActiveAt returns the last line with a timestamp at or before pos. The
// second return is false before the first line or for an empty index.
func (ix *Index) ActiveAt(pos time.Duration) (Line, bool) {
	if ix.Empty() {
		return Line{}, false
	}

	// first line strictly after pos
	i := sort.Search(len(ix.lines), func(i int) bool {
		return ix.lines[i].At > pos
	})
	if i == 0 {
		return Line{}, false
	}
	return ix.lines[i-1], true
}

// ActiveIndex is ActiveAt returning a position in Lines, or -1.
func (ix *Index) ActiveIndex(pos time.Duration) int {
	if ix.Empty() {
		return -1
	}
	i := sort.Search(len(ix.lines), func(i int) bool {
		return ix.lines[i].At > pos
	})
	return i - 1
}

func splitLrcLine(line string) (string, string) {
	if !strings.HasPrefix(line, "[") {
		return "", ""
	}

	endIndex := strings.Index(line, "]")
	if endIndex <= 1 {
		return "", ""
	}

	timePart := line[1:endIndex]
	textPart := strings.TrimSpace(line[endIndex+1:])
	if textPart == "" {
		return "", ""
	}

	return timePart, textPart
}

func parseLrcTime(raw string) (time.Duration, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time format: %s", raw)
	}

	var hours, minutes, seconds float64
	var err error

	fields := []*float64{&minutes, &seconds}
	if len(parts) == 3 {
		fields = []*float64{&hours, &minutes, &seconds}
	}
	for i, dst := range fields {
		*dst, err = strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse time component %q: %w", parts[i], err)
		}
	}

	total := hours*3600 + minutes*60 + seconds
	if total < 0 {
		return 0, errors.New("negative time not allowed")
	}

	return time.Duration(total * float64(time.Second)), nil
}
