package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainConditions = "siddur/conditions/v1"
	DomainBuild      = "siddur/build/v1"
	DomainRegistry   = "siddur/registry/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BuildKey computes the content-addressed key of a build: the service, the
// snapshot and the selected segments. Builds for different dates that
// produce the same output share a key.
func BuildKey(svc ServiceType, conditions DateConditions, segments []string) (string, error) {
	obj := Object{
		"service":    String(svc),
		"conditions": conditions.Object(),
		"segments":   Strings(segments...),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("BuildKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBuild, canonical), nil
}

// MustBuildKey is like BuildKey but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBuildKey(svc ServiceType, conditions DateConditions, segments []string) string {
	key, err := BuildKey(svc, conditions, segments)
	if err != nil {
		panic(err)
	}
	return key
}
