package cms

import (
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ValidateStructureID checks that id is a structure id the server will
// accept (a UUID) and returns it in canonical lower-case form.
func ValidateStructureID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("structure id is empty")
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return "", errors.New("structure id must be a UUID")
	}
	return u.String(), nil
}

// NormalizeSitePath cleans a VFS site path: forces a leading slash, collapses
// dot segments, and rejects traversal and embedded whitespace.
func NormalizeSitePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("site path is empty")
	}
	if strings.ContainsAny(p, " \t\r\n") {
		return "", errors.New("site path must not contain whitespace")
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	clean := path.Clean(p)
	if clean == "/.." || strings.HasPrefix(clean, "/../") {
		return "", errors.New("site path escapes the site root")
	}
	return clean, nil
}
