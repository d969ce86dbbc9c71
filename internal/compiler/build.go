package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/siddur/internal/ir"
)

// ConfigurationError aggregates every validation failure of a registry.
// It is returned at load time only; queries never see it.
type ConfigurationError struct {
	Errors []ValidationError
}

func (e *ConfigurationError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid registry: " + e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("invalid registry: %d errors:\n  %s", len(e.Errors), strings.Join(msgs, "\n  "))
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// BuildRegistry validates src and converts it into an immutable registry.
// Each when entry becomes one typed condition:
//
//	always: true         -> ir.Always
//	omer_day: {min, max} -> ir.Between
//	holiday: [..]        -> ir.OneOf
//	anything else        -> ir.Equals
//
// Service names are canonicalised, so "shacharis" is stored as morning.
func BuildRegistry(src *Source) (*ir.Registry, error) {
	if errs := Validate(src); len(errs) > 0 {
		return nil, &ConfigurationError{Errors: errs}
	}

	annotations := make([]ir.Annotation, 0, len(src.Segments))
	for _, seg := range src.Segments {
		services := make([]ir.ServiceType, 0, len(seg.Services))
		for _, name := range seg.Services {
			svc, err := ir.ParseServiceType(name)
			if err != nil {
				return nil, err
			}
			services = append(services, svc)
		}

		conditions := make([]ir.Condition, 0, len(seg.When))
		for _, c := range seg.When {
			conditions = append(conditions, toCondition(c))
		}

		annotations = append(annotations, ir.Annotation{
			Key:        seg.Key,
			Services:   services,
			Conditions: conditions,
		})
	}

	groups := make([]ir.Group, 0, len(src.Groups))
	for _, g := range src.Groups {
		groups = append(groups, ir.Group{Name: g.Name, Members: g.Members})
	}

	return ir.NewRegistry(annotations, groups)
}

// toCondition assumes c passed validation.
func toCondition(c ConditionDecl) ir.Condition {
	if c.Key == ir.AlwaysKey {
		return ir.Always{Include: bool(c.Value.(ir.Bool))}
	}

	field := ir.Field(c.Key)
	switch val := c.Value.(type) {
	case ir.Object:
		return ir.Between{
			Field: field,
			Min:   int(val["min"].(ir.Int)),
			Max:   int(val["max"].(ir.Int)),
		}
	case ir.List:
		return ir.OneOf{Field: field, Values: val}
	default:
		return ir.Equals{Field: field, Value: val}
	}
}
