package service

import "github.com/mileusna/useragent"

// ClientInfo is the browser, OS and device class parsed from a User-Agent.
type ClientInfo struct {
	Browser string
	OS      string
	Device  string
}

// DescribeClient parses a User-Agent header for the login history.
func DescribeClient(ua string) ClientInfo {
	parsed := useragent.Parse(ua)

	info := ClientInfo{Browser: "Unknown", OS: "Unknown", Device: "unknown"}
	if parsed.Name != "" {
		info.Browser = parsed.Name
	}
	if parsed.OS != "" {
		info.OS = parsed.OS
	}
	switch {
	case parsed.Bot:
		info.Device = "bot"
	case parsed.Tablet:
		info.Device = "tablet"
	case parsed.Mobile:
		info.Device = "mobile"
	case parsed.Desktop:
		info.Device = "desktop"
	}
	return info
}
