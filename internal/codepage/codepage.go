// Package codepage converts between the legacy Korean codepage (CP949, a
// superset of EUC-KR) used for every embedded string and UTF-8.
package codepage

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// ErrInvalid is returned for byte sequences which are not valid CP949.
var ErrInvalid = errors.New("invalid cp949 text")

// Decode converts CP949 bytes to UTF-8. Unlike the x/text decoder, bytes that
// do not map to a character are an error instead of U+FFFD.
func Decode(b []byte) (string, error) {
	if isASCII(b) {
		return string(b), nil
	}
	s, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalid, b, err)
	}
	if bytes.ContainsRune(s, utf8.RuneError) {
		return "", fmt.Errorf("%w: %q", ErrInvalid, b)
	}
	return string(s), nil
}

// DecodePath is like Decode, but also normalizes backslashes to forward
// slashes and lowercases the result.
func DecodePath(b []byte) (string, error) {
	s, err := Decode(b)
	if err != nil {
		return "", err
	}
	return NormalizePath(s), nil
}

// NormalizePath converts an already-decoded path to the canonical form used
// for lookups.
func NormalizePath(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "\\", "/"))
}

// Encode converts UTF-8 text to CP949.
func Encode(s string) ([]byte, error) {
	if isASCII([]byte(s)) {
		return []byte(s), nil
	}
	b, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode %q as cp949: %w", s, err)
	}
	return b, nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
