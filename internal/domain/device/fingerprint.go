package device

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"
	"time"
)

// FingerprintRequest holds the client-presented attributes of a device. Every
// field is optional; missing values contribute an empty string.
type FingerprintRequest struct {
	UserID            string            `json:"user_id"`
	UserAgent         string            `json:"user_agent"`
	ScreenResolution  string            `json:"screen_resolution"`
	Timezone          string            `json:"timezone"`
	Language          string            `json:"language"`
	Plugins           []string          `json:"plugins"`
	CanvasFingerprint string            `json:"canvas_fingerprint"`
	WebGLFingerprint  string            `json:"webgl_fingerprint"`
	Headers           map[string]string `json:"headers"`
}

// Fingerprint is the stable identity derived from a FingerprintRequest.
type Fingerprint struct {
	ID              string            `json:"fingerprint_id"`
	Hash            string            `json:"hash"`
	CreatedAt       time.Time         `json:"created_at"`
	IsKnownDevice   bool              `json:"is_known_device"`
	SimilarityScore float64           `json:"similarity_score"`
	Attributes      map[string]string `json:"attributes"`
}

// Canonical concatenates every attribute into one string. Headers are ordered
// by lowercased name so header order never affects the result; plugin order
// is kept as presented.
func (r FingerprintRequest) Canonical() string {
	var b strings.Builder
	b.WriteString(r.UserAgent)
	b.WriteString(r.ScreenResolution)
	b.WriteString(r.Timezone)
	b.WriteString(r.Language)
	b.WriteString(strings.Join(r.Plugins, ","))
	b.WriteString(r.CanvasFingerprint)
	b.WriteString(r.WebGLFingerprint)

	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ki, kj := strings.ToLower(keys[i]), strings.ToLower(keys[j])
		if ki == kj {
			return keys[i] < keys[j]
		}
		return ki < kj
	})
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(r.Headers[k])
	}
	return b.String()
}

// Hash returns the base64-encoded SHA-256 digest of the canonical string.
func (r FingerprintRequest) Hash() string {
	sum := sha256.Sum256([]byte(r.Canonical()))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Attributes flattens the request into the attribute map kept on a Fingerprint.
func (r FingerprintRequest) Attributes() map[string]string {
	attrs := map[string]string{
		"user_agent":         r.UserAgent,
		"screen_resolution":  r.ScreenResolution,
		"timezone":           r.Timezone,
		"language":           r.Language,
		"plugins":            strings.Join(r.Plugins, ","),
		"canvas_fingerprint": r.CanvasFingerprint,
		"webgl_fingerprint":  r.WebGLFingerprint,
	}
	for k, v := range r.Headers {
		attrs["header:"+strings.ToLower(k)] = v
	}
	return attrs
}
