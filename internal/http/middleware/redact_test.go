package middleware

import (
	"net/http"
	"testing"
)

func TestScrubber_Text(t *testing.T) {
	s := newScrubber(nil)
	cases := []struct{ in, want string }{
		{"", ""},
		{"plain", "plain"},
		{"a.b+tag@example.com", "[REDACTED:email]"},
		{"call 212-555-1212 now", "call [REDACTED:phone] now"},
		{"id=123e4567-e89b-12d3-a456-426614174000", "id=[REDACTED:id]"},
	}
	for _, tc := range cases {
		if got := s.text(tc.in); got != tc.want {
			t.Errorf("text(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestScrubber_Headers(t *testing.T) {
	s := newScrubber([]string{" x-api-key ", ""})
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("Cookie", "sid=1")
	h.Set(HeaderOwnerToken, "tok")
	h.Set("X-Api-Key", "shhh")
	h.Add("X-Note", "a@b.com")
	h.Add("X-Note", "ok")

	got := s.headers(h)
	for _, k := range []string{"Authorization", "Cookie", HeaderOwnerToken, "X-Api-Key"} {
		if got[k] != masked {
			t.Errorf("%s = %q; want masked", k, got[k])
		}
	}
	if got["X-Note"] != "[REDACTED:email], ok" {
		t.Errorf("X-Note = %q", got["X-Note"])
	}
}
