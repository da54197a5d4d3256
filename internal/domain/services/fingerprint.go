package services

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/gowebpki/jcs"
)

// Fingerprints are opaque quoted tags derived deterministically from a
// resource's API-visible content: the resource is serialized to canonical
// JSON (RFC 8785) and hashed with CRC-32. Two resources share a tag iff
// they are field-wise identical; the hash only needs to avoid accidental
// collisions at low volume, it is not a security primitive. Tags must
// always be computed from a freshly read resource, never from a cached
// copy.

// ComputeTag returns the fingerprint tag for v, quotes included.
// It is side-effect-free and stable across calls and process restarts.
func ComputeTag(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serializing resource: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalizing resource: %w", err)
	}
	return fmt.Sprintf("%q", fmt.Sprintf("%08x", crc32.ChecksumIEEE(canonical))), nil
}

// EvaluateIfMatch evaluates an If-Match precondition against the current
// tag. It reports true when the write may proceed: the header was absent,
// was the wildcard, or listed a tag equal to the current one. A false
// result maps to 412 Precondition Failed.
func EvaluateIfMatch(clientTag, currentTag string) bool {
	if clientTag == "" {
		return true
	}
	return tagListMatches(clientTag, currentTag)
}

// EvaluateIfNoneMatch evaluates an If-None-Match precondition against the
// current tag. It reports true when the full response should be sent: the
// header was absent or none of its tags equal the current one. A false
// result maps to 304 Not Modified.
func EvaluateIfNoneMatch(clientTag, currentTag string) bool {
	if clientTag == "" {
		return true
	}
	return !tagListMatches(clientTag, currentTag)
}

// tagListMatches reports whether any tag in the comma-separated client
// list equals the current tag. The weak-validator prefix is ignored;
// CRC-over-content tags are strong.
func tagListMatches(clientTags, currentTag string) bool {
	for _, tag := range strings.Split(clientTags, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		if strings.TrimPrefix(tag, "W/") == currentTag {
			return true
		}
	}
	return false
}
