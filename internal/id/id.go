// Package id generates the string identifiers used for sessions, media
// references and background tasks.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// publicIDAlphabet keeps media references lowercase so they are safe in file
// names on case-insensitive filesystems.
const publicIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// publicIDLength gives roughly 103 bits of entropy with publicIDAlphabet.
const publicIDLength = 20

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "sess-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// PublicID creates a media reference inside a folder, e.g. "gallery/3k9x0q...".
// The result contains only [a-z0-9] after the folder separator.
func PublicID(folder string) (string, error) {
	suffix, err := gonanoid.Generate(publicIDAlphabet, publicIDLength)
	if err != nil {
		return "", fmt.Errorf("generate public id: %w", err)
	}
	if folder == "" {
		return suffix, nil
	}
	return folder + "/" + suffix, nil
}
