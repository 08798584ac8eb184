// Package device derives coarse device metadata from a browser user agent.
package device

import (
	"regexp"
	"strings"

	"github.com/shelfpoint/scanbridge/internal/models"
)

var (
	iosPattern       = regexp.MustCompile(`iPhone OS (\d+_\d+)`)
	androidPattern   = regexp.MustCompile(`Android (\d+\.\d+)`)
	platformPatterns = []struct {
		needle string
		name   string
	}{
		{"Windows", "Windows"},
		{"Macintosh", "macOS"},
		{"X11", "Linux"},
		{"Linux", "Linux"},
	}
)

// Info parses a user agent into DeviceInfo. Unknown agents fall back to
// "Unknown" rather than failing; device metadata is diagnostic only.
func Info(userAgent string) models.DeviceInfo {
	return models.DeviceInfo{
		Device:  describe(userAgent),
		Browser: userAgent,
	}
}

func describe(ua string) string {
	if ua == "" {
		return "Unknown"
	}

	if strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad") || strings.Contains(ua, "iPod") {
		if m := iosPattern.FindStringSubmatch(ua); m != nil {
			return "iOS " + strings.ReplaceAll(m[1], "_", ".")
		}
		return "iOS"
	}

	if strings.Contains(ua, "Android") {
		if m := androidPattern.FindStringSubmatch(ua); m != nil {
			return "Android " + m[1]
		}
		return "Android"
	}

	for _, p := range platformPatterns {
		if strings.Contains(ua, p.needle) {
			return p.name
		}
	}
	return "Unknown"
}
