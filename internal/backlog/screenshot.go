package backlog

import (
	"path"
	"regexp"
	"strconv"
	"time"
)

var (
	imageRefRe     = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	millisStampRe  = regexp.MustCompile(`_(\d{13})\.[A-Za-z0-9]+$`)
	compactStampRe = regexp.MustCompile(`_(\d{8}-\d{6})\.[A-Za-z0-9]+$`)
)

const compactStampLayout = "20060102-150405"

// ExtractScreenshots finds every image reference in markdown. The timestamp
// comes from the filename ("name_<unix millis>.png" or
// "name_YYYYMMDD-HHMMSS.png", UTC); other names get captured.
func ExtractScreenshots(markdown string, captured time.Time) []Screenshot {
	matches := imageRefRe.FindAllStringSubmatch(markdown, -1)
	if len(matches) == 0 {
		return nil
	}

	shots := make([]Screenshot, 0, len(matches))

	for _, match := range matches {
		ref := match[2]
		filename := path.Base(ref)

		shots = append(shots, Screenshot{
			Filename:  filename,
			Path:      ref,
			Alt:       match[1],
			Timestamp: screenshotTime(filename, captured),
		})
	}

	return shots
}

func screenshotTime(filename string, fallback time.Time) time.Time {
	if match := millisStampRe.FindStringSubmatch(filename); match != nil {
		millis, err := strconv.ParseInt(match[1], 10, 64)
		if err == nil {
			return time.UnixMilli(millis).UTC()
		}
	}

	if match := compactStampRe.FindStringSubmatch(filename); match != nil {
		stamp, err := time.Parse(compactStampLayout, match[1])
		if err == nil {
			return stamp
		}
	}

	return fallback
}
