package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

const masked = "[REDACTED]"

// UUIDs go first: the phone pattern would otherwise eat their digit runs.
var scrubPatterns = []struct {
	re  *regexp.Regexp
	tag string
}{
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
}

// scrubber removes personal data from request metadata before it is logged.
// Bodies are never logged, so it only sees query strings and headers.
type scrubber struct {
	mask map[string]struct{}
}

func newScrubber(extra []string) *scrubber {
	s := &scrubber{mask: map[string]struct{}{}}
	for _, h := range append([]string{"Authorization", "Cookie", "Set-Cookie", HeaderOwnerToken}, extra...) {
		if h = strings.TrimSpace(h); h != "" {
			s.mask[http.CanonicalHeaderKey(h)] = struct{}{}
		}
	}
	return s
}

func (s *scrubber) text(v string) string {
	for _, p := range scrubPatterns {
		if v == "" {
			break
		}
		v = p.re.ReplaceAllString(v, p.tag)
	}
	return v
}

func (s *scrubber) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := s.mask[http.CanonicalHeaderKey(k)]; ok {
			out[k] = masked
			continue
		}
		out[k] = s.text(strings.Join(vv, ", "))
	}
	return out
}
