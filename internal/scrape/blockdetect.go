package scrape

import (
	"bytes"
	"net/http"
)

// BlockType names the kind of anti-bot page detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

var (
	cloudflareMarkers = [][]byte{[]byte("checking your browser"), []byte("cf-browser-verification")}
	captchaMarkers    = [][]byte{[]byte("g-recaptcha"), []byte("h-captcha"), []byte("captcha")}
)

// DetectBlock looks for signs that resp is a challenge page or an empty
// JavaScript shell rather than real content. The crawler only logs and
// counts the result.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("Server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := bytes.ToLower(body)
	if containsAny(lower, cloudflareMarkers) {
		return true, BlockCloudflare
	}
	if containsAny(lower, captchaMarkers) {
		return true, BlockCaptcha
	}

	if len(body) < 2000 {
		if bytes.Contains(lower, []byte("<noscript")) && bytes.Contains(lower, []byte("enable javascript")) {
			return true, BlockJSShell
		}
		if bytes.Contains(lower, []byte(`http-equiv="refresh"`)) {
			return true, BlockJSShell
		}
	}
	return false, BlockNone
}

func containsAny(haystack []byte, needles [][]byte) bool {
	for _, n := range needles {
		if bytes.Contains(haystack, n) {
			return true
		}
	}
	return false
}
