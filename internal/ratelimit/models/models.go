package models

import (
	"strings"
	"time"
)

// Result is the outcome of one throttle check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is only set when the request was refused.
	RetryAfter time.Duration
}

// ThrottleKey builds the bucket key for a client IP.
func ThrottleKey(ip string) string {
	return "throttle:ip:" + SanitizeKeySegment(ip)
}

// SanitizeKeySegment escapes the key delimiter so a crafted identifier cannot
// land in a neighbouring bucket. IPv6 addresses are affected too.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
