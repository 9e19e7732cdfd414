package core

import "regexp"

type userAgentPattern struct {
	regex     *regexp.Regexp
	canonical string
}

var userAgentPatterns []*userAgentPattern

func init() {
	patterns := []struct {
		pattern   string
		canonical string
	}{
		// API clients & chat integrations; these upload images on behalf of other apps.
		{`(?i)discordbot`, "Discord"},
		{`(?i)slackbot`, "Slack"},
		{`(?i)telegrambot`, "Telegram"},
		{`(?i)postmanruntime`, "Postman"},
		{`(?i)insomnia`, "Insomnia"},
		{`(?i)httpie`, "HTTPie"},
		{`(?i)okhttp`, "OkHttp"},
		{`(?i)axios`, "axios"},
		{`(?i)python-requests|aiohttp|httpx`, "Python"},
		{`(?i)go-http-client`, "Go"},
		{`(?i)curl`, "curl"},
		{`(?i)wget`, "wget"},
		{`(?i)node-fetch|undici|node\.js`, "Node.js"},
		{`(?i)java`, "Java"},
		{`(?i)ruby`, "Ruby"},

		// Mobile browser patterns (more specific - must come before desktop patterns)
		{`(?i)mobile.*safari`, "Mobile Safari"},
		{`(?i)android.*chrome`, "Chrome Mobile"},
		{`(?i)android.*firefox`, "Firefox Mobile"},

		// Browser patterns (order matters - more specific patterns first)
		{`(?i)edg/[\d.]+`, "Edge"},
		{`(?i)chrome/[\d.]+`, "Chrome"},
		{`(?i)firefox/[\d.]+`, "Firefox"},
		{`(?i)safari/[\d.]+`, "Safari"},
		{`(?i)opera/[\d.]+`, "Opera"},

		// Generic fallback
		{`.*`, "Unknown"},
	}

	userAgentPatterns = make([]*userAgentPattern, 0, len(patterns))
	for _, p := range patterns {
		if regex, err := regexp.Compile(p.pattern); err == nil {
			userAgentPatterns = append(userAgentPatterns, &userAgentPattern{
				regex:     regex,
				canonical: p.canonical,
			})
		}
	}
}

// GetCanonicalUserAgent returns the canonical client name recorded in compression history.
func GetCanonicalUserAgent(userAgent string) string {
	for _, pattern := range userAgentPatterns {
		if pattern.regex.MatchString(userAgent) {
			return pattern.canonical
		}
	}
	return "Unknown"
}
