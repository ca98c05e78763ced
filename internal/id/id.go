// Package id generates opaque unique identifiers for roster records.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// StudentPrefix is the prefix carried by every student record id.
const StudentPrefix = "stu"

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "stu-V1StGXR8_Z5jdHi6B-myT").
//
// NanoIDs are URL-friendly and compact, and the id stays opaque to callers:
// nothing in the system parses it beyond equality checks.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Student generates a fresh student record id.
func Student() (string, error) {
	return Generate(StudentPrefix)
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use only where failure should crash the program, such as seeding tools.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
