// Package youtube holds the video-link plumbing the band app uses when
// attaching YouTube videos: URL parsing and ISO-8601 duration formatting,
// plus a thin Data API client for resolving video metadata.
package youtube

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrNoVideoID = errors.New("no video id found in url")

var (
	watchRe = regexp.MustCompile(`[?&]v=([^&]+)`)
	shortRe = regexp.MustCompile(`youtu\.be/([^?&]+)`)
	embedRe = regexp.MustCompile(`embed/([^?&]+)`)
)

// ExtractVideoID pulls the video id out of the three supported URL shapes:
// watch?v=ID, youtu.be/ID and embed/ID.
func ExtractVideoID(url string) (string, error) {
	if url == "" {
		return "", ErrNoVideoID
	}

	for _, re := range []*regexp.Regexp{watchRe, shortRe, embedRe} {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}

	return "", ErrNoVideoID
}

var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// FormatDuration renders an ISO-8601 duration (PT1H2M3S) as a clock string
// (1:02:03). Durations under an hour keep the leading minute digit bare
// (4:05), matching YouTube's own display.
func FormatDuration(iso string) (string, error) {
	m := durationRe.FindStringSubmatch(iso)
	if m == nil {
		return "", fmt.Errorf("invalid ISO-8601 duration %q", iso)
	}

	hours := atoiDefault(m[1])
	minutes := atoiDefault(m[2])
	seconds := atoiDefault(m[3])

	var b strings.Builder
	if hours > 0 {
		fmt.Fprintf(&b, "%d:%02d:%02d", hours, minutes, seconds)
	} else {
		fmt.Fprintf(&b, "%d:%02d", minutes, seconds)
	}
	return b.String(), nil
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
