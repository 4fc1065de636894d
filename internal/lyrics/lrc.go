package lyrics

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// tieNudge is the increment applied to a line whose timestamp collides with
// the previous line after sorting. Keeps presentation order without ever
// dropping a line.
const tieNudge = time.Millisecond

// Matches a leading timestamp like [00:12.34] or [00:12.345].
var lrcLineRe = regexp.MustCompile(`^\[(\d{1,3}):(\d{2})[.:](\d{2,3})\](.*)$`)

// ParseLRC parses LRC-format lyrics from a reader. Lines without a timestamp
// tag (metadata, blanks) are ignored, as are timestamped lines whose text is
// empty after trimming. The result is repaired to be strictly ascending.
//
// Zero valid lines is not an error: the caller gets an empty document.
func ParseLRC(r io.Reader) (*Document, error) {
	doc := &Document{}
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		m := lrcLineRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}

		text := strings.TrimSpace(m[4])
		if text == "" {
			continue
		}

		ts, ok := parseTimestamp(m[1], m[2], m[3])
		if !ok {
			continue
		}

		doc.Lines = append(doc.Lines, Line{Time: ts, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	Repair(doc.Lines)
	return doc, nil
}

// parseTimestamp converts minute/second/fraction fields to a duration.
// The fraction is centiseconds when 2 digits, milliseconds when 3.
func parseTimestamp(minStr, secStr, fracStr string) (time.Duration, bool) {
	minutes, err := strconv.Atoi(minStr)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(secStr)
	if err != nil || seconds > 59 {
		return 0, false
	}
	frac, err := strconv.Atoi(fracStr)
	if err != nil {
		return 0, false
	}
	millis := frac
	if len(fracStr) == 2 {
		millis = frac * 10
	}

	total := int64(minutes)*60_000 + int64(seconds)*1000 + int64(millis)
	return time.Duration(total) * time.Millisecond, true
}

// Repair enforces the ordering invariant on a line slice in place: a stable
// sort by timestamp, then colliding timestamps are nudged forward by 1ms so
// that order is strictly ascending. Third-party lyric files regularly carry
// duplicated or inverted timestamps; they are fixed here rather than trusted.
func Repair(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Time < lines[j].Time
	})
	for i := 1; i < len(lines); i++ {
		if lines[i].Time <= lines[i-1].Time {
			lines[i].Time = lines[i-1].Time + tieNudge
		}
	}
}
