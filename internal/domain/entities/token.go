package entities

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// OneTimeToken is a single-use credential that lets a client retry a
// mutating request without double effect. A token starts unused with no
// cached response; the first successful claim flips Used exactly once,
// and the response of the guarded mutation is stored immediately after it
// completes so later claims replay it.
type OneTimeToken struct {
	Token           string    `json:"token"`
	Used            bool      `json:"used"`
	StatusCode      *int      `json:"status_code"`
	ResponseBody    []byte    `json:"response_body"`
	ResponseHeaders HeaderBag `json:"response_headers"`
}

// HasResponse reports whether the token carries a cached response.
func (t *OneTimeToken) HasResponse() bool {
	return t.StatusCode != nil
}

// HeaderBag is a typed, single-valued header map used to persist and
// replay response headers. It converts to and from http.Header and a
// JSON column explicitly, so no call site parses header text by hand.
type HeaderBag map[string]string

// NewHeaderBag flattens an http.Header, keeping the first value of each
// header.
func NewHeaderBag(h http.Header) HeaderBag {
	bag := make(HeaderBag, len(h))
	for name := range h {
		bag[name] = h.Get(name)
	}
	return bag
}

// Header expands the bag back into an http.Header.
func (b HeaderBag) Header() http.Header {
	h := make(http.Header, len(b))
	for name, value := range b {
		h.Set(name, value)
	}
	return h
}

// Encode serializes the bag for storage.
func (b HeaderBag) Encode() ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encoding header bag: %w", err)
	}
	return data, nil
}

// DecodeHeaderBag deserializes a stored bag. Empty input yields an empty
// bag.
func DecodeHeaderBag(data []byte) (HeaderBag, error) {
	if len(data) == 0 {
		return HeaderBag{}, nil
	}
	var bag HeaderBag
	if err := json.Unmarshal(data, &bag); err != nil {
		return nil, fmt.Errorf("decoding header bag: %w", err)
	}
	return bag, nil
}
