// Package channel detects which publication channel brought a respondent
// in. A pure read of the request URL and referrer, evaluated once at
// session start.
package channel

import (
	"net/url"
	"strings"
)

// Direct is the channel when nothing identifies the origin.
const Direct = "direct"

var referrerHosts = map[string]string{
	"facebook.com":  "facebook",
	"fb.com":        "facebook",
	"instagram.com": "instagram",
	"wa.me":         "whatsapp",
	"whatsapp.com":  "whatsapp",
	"t.co":          "twitter",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"linkedin.com":  "linkedin",
	"lnkd.in":       "linkedin",
	"google.com":    "google",
	"tiktok.com":    "tiktok",
	"youtube.com":   "youtube",
	"youtu.be":      "youtube",
}

// Detect resolves the channel from explicit URL parameters first
// (utm_source, then channel, then ref), falling back to the referrer's
// host, then to "direct".
func Detect(rawURL, referrer string) string {
	if u, err := url.Parse(strings.TrimSpace(rawURL)); err == nil {
		q := u.Query()
		for _, param := range []string{"utm_source", "channel", "ref"} {
			if v := strings.TrimSpace(q.Get(param)); v != "" {
				return strings.ToLower(v)
			}
		}
	}
	if host := referrerHost(referrer); host != "" {
		for suffix, name := range referrerHosts {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return name
			}
		}
		return host
	}
	return Direct
}

func referrerHost(referrer string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return ""
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}
