package fetch

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot page detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// DetectBlock inspects a response for signs of anti-bot protection. header
// may be nil when the backend does not expose response headers.
func DetectBlock(status int, header http.Header, body []byte) (bool, BlockType) {
	if (status == http.StatusForbidden || status == http.StatusServiceUnavailable) && header != nil {
		if header.Get("cf-ray") != "" || header.Get("cf-mitigated") != "" ||
			strings.EqualFold(header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))
	small := len(body) < 20000

	if strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "challenge-platform") ||
		small && strings.Contains(lower, "checking your browser") {
		return true, BlockCloudflare
	}

	// Contact forms embed captchas too, so only a small page counts.
	if len(body) < 5000 && (strings.Contains(lower, "captcha-delivery") ||
		strings.Contains(lower, "g-recaptcha") || strings.Contains(lower, "h-captcha")) {
		return true, BlockCaptcha
	}

	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "enable javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}

var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// looksLikeChallenge reports whether already-rendered markdown is a short
// challenge or error page rather than site content.
func looksLikeChallenge(markdown string) bool {
	content := strings.TrimSpace(markdown)
	if len(content) >= 1000 {
		return false
	}
	lower := strings.ToLower(content)
	for _, sig := range challengeSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
