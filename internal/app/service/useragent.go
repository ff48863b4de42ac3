package service

import (
	"regexp"
	"strings"
)

// DeviceInfo holds the categorical labels derived from a user-agent string.
type DeviceInfo struct {
	Device  string
	OS      string
	Browser string
}

// botTokens are matched case-insensitively anywhere in the user agent.
var botTokens = []string{
	"bot", "crawl", "spider", "slurp", "bingpreview", "facebookexternalhit",
	"pingdom", "monitor", "headlesschrome", "google-pagespeed", "semrush",
}

var (
	iosVersionRe     = regexp.MustCompile(`(?i)os (\d+)`)
	androidVersionRe = regexp.MustCompile(`(?i)android (\d+)`)
	macVersionRe     = regexp.MustCompile(`(?i)mac os x (\d+)`)
)

// ClassifyUserAgent maps a raw user-agent string to device, OS and browser
// labels. Rule order matters throughout: Android phone UAs also carry the
// bare "android" token, Edge UAs carry "chrome", Chrome UAs carry "safari".
func ClassifyUserAgent(ua string) DeviceInfo {
	lower := strings.ToLower(ua)

	return DeviceInfo{
		Device:  classifyDevice(lower),
		OS:      classifyOS(ua, lower),
		Browser: classifyBrowser(lower),
	}
}

// IsBot reports whether the user agent matches a known crawler or monitoring
// token. An empty user agent is treated as non-bot.
func IsBot(ua string) bool {
	lower := strings.ToLower(ua)
	for _, token := range botTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func classifyDevice(lower string) string {
	switch {
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipod"):
		return "iPhone"
	case strings.Contains(lower, "ipad"):
		return "iPad"
	case strings.Contains(lower, "android") && strings.Contains(lower, "mobile"):
		return "Android Phone"
	case strings.Contains(lower, "android"):
		return "Android Tablet"
	case strings.Contains(lower, "tablet") || strings.Contains(lower, "kindle") ||
		strings.Contains(lower, "playbook") || strings.Contains(lower, "silk"):
		return "Tablet"
	case strings.Contains(lower, "mobile"):
		return "Mobile"
	default:
		return "Desktop"
	}
}

func classifyOS(ua, lower string) string {
	switch {
	case strings.Contains(lower, "windows nt 10"):
		return "Windows 10/11"
	case strings.Contains(lower, "windows nt 6.3"):
		return "Windows 8.1"
	case strings.Contains(lower, "windows nt 6.2"):
		return "Windows 8"
	case strings.Contains(lower, "windows nt 6.1"):
		return "Windows 7"
	case strings.Contains(lower, "windows"):
		return "Windows"
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad") || strings.Contains(lower, "ipod"):
		if m := iosVersionRe.FindStringSubmatch(ua); m != nil {
			return "iOS " + m[1]
		}
		return "iOS"
	case androidVersionRe.MatchString(ua):
		return "Android " + androidVersionRe.FindStringSubmatch(ua)[1]
	case strings.Contains(lower, "mac os x"):
		if m := macVersionRe.FindStringSubmatch(ua); m != nil {
			return "macOS " + m[1]
		}
		return "macOS"
	case strings.Contains(lower, "linux"):
		return "Linux"
	case strings.Contains(lower, "cros"):
		return "Chrome OS"
	default:
		return "Unknown"
	}
}

func classifyBrowser(lower string) string {
	switch {
	case strings.Contains(lower, "edg"):
		return "Edge"
	case strings.Contains(lower, "chrome"):
		return "Chrome"
	case strings.Contains(lower, "safari"):
		return "Safari"
	case strings.Contains(lower, "firefox"):
		return "Firefox"
	case strings.Contains(lower, "opera") || strings.Contains(lower, "opr"):
		return "Opera"
	default:
		return "Unknown"
	}
}
