package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ServiceType is one of the three daily prayer services.
type ServiceType string

const (
	Morning   ServiceType = "morning"
	Afternoon ServiceType = "afternoon"
	Evening   ServiceType = "evening"
)

// ErrUnknownServiceType is returned for a service type outside the fixed
// three-member set.
var ErrUnknownServiceType = errors.New("unknown service type")

// serviceAliases maps the traditional service names onto the canonical ones.
var serviceAliases = map[string]ServiceType{
	"morning":   Morning,
	"shacharis": Morning,
	"shacharit": Morning,
	"afternoon": Afternoon,
	"mincha":    Afternoon,
	"minchah":   Afternoon,
	"evening":   Evening,
	"maariv":    Evening,
	"arvit":     Evening,
}

// ServiceTypes returns the service types in daily order.
func ServiceTypes() []ServiceType {
	return []ServiceType{Morning, Afternoon, Evening}
}

// ParseServiceType resolves a canonical or traditional service name.
// Matching is case-insensitive.
func ParseServiceType(s string) (ServiceType, error) {
	if svc, ok := serviceAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return svc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownServiceType, s)
}

// Valid reports whether s is one of the three canonical service types.
func (s ServiceType) Valid() bool {
	switch s {
	case Morning, Afternoon, Evening:
		return true
	}
	return false
}

// Check returns ErrUnknownServiceType when s is not canonical.
func (s ServiceType) Check() error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownServiceType, string(s))
	}
	return nil
}
