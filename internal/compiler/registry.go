package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/siddur/internal/ir"
)

// Source is the declared content of a registry configuration before
// validation. Order follows the configuration.
type Source struct {
	Segments []SegmentDecl
	Groups   []GroupDecl
}

// SegmentDecl is one entry of the top-level segments list.
type SegmentDecl struct {
	Key      string
	Services []string
	When     []ConditionDecl
	Pos      token.Pos
}

// ConditionDecl is one key of a segment's when struct. Value is a scalar,
// a List for membership tests, or an Object with min and max for ranges.
type ConditionDecl struct {
	Key   string
	Value ir.Value
	Pos   token.Pos
}

// GroupDecl names an ordered list of content keys.
type GroupDecl struct {
	Name    string
	Members []string
	Pos     token.Pos
}

// CompileRegistry parses a CUE value holding a registry configuration.
// Uses the CUE SDK's Go API directly.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`segments: [{key: "opening", services: ["morning"], when: {always: true}}]`)
//	src, err := CompileRegistry(v)
//
// CompileRegistry checks shape only; Validate checks meaning.
func CompileRegistry(v cue.Value) (*Source, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	segVal := v.LookupPath(cue.ParsePath("segments"))
	if !segVal.Exists() {
		return nil, &CompileError{
			Field:   "segments",
			Message: "segments is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := segVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	src := &Source{}
	for i := 0; iter.Next(); i++ {
		decl, err := CompileSegment(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("segments[%d]: %w", i, err)
		}
		src.Segments = append(src.Segments, *decl)
	}

	groupsVal := v.LookupPath(cue.ParsePath("groups"))
	if groupsVal.Exists() {
		groups, err := parseGroups(groupsVal)
		if err != nil {
			return nil, err
		}
		src.Groups = groups
	}

	return src, nil
}

// CompileSegment parses one segment entry:
//
//	{key: "omer_count", services: ["evening"], when: {omer_day: {min: 1, max: 49}}}
//
// The when struct is optional; a segment without one applies to every date
// of its services.
func CompileSegment(v cue.Value) (*SegmentDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &SegmentDecl{Pos: v.Pos()}

	keyVal := v.LookupPath(cue.ParsePath("key"))
	if !keyVal.Exists() {
		return nil, &CompileError{
			Field:   "key",
			Message: "key is required",
			Pos:     v.Pos(),
		}
	}
	key, err := keyVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	decl.Key = key

	servicesVal := v.LookupPath(cue.ParsePath("services"))
	if !servicesVal.Exists() {
		return nil, &CompileError{
			Field:   "services",
			Message: fmt.Sprintf("segment %q: services is required", key),
			Pos:     v.Pos(),
		}
	}
	decl.Services, err = parseStrings(servicesVal)
	if err != nil {
		return nil, err
	}

	whenVal := v.LookupPath(cue.ParsePath("when"))
	if whenVal.Exists() {
		iter, err := whenVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			val, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			decl.When = append(decl.When, ConditionDecl{
				Key:   iter.Label(),
				Value: val,
				Pos:   iter.Value().Pos(),
			})
		}
	}

	return decl, nil
}

// parseGroups reads the groups struct in declaration order.
func parseGroups(v cue.Value) ([]GroupDecl, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var groups []GroupDecl
	for iter.Next() {
		members, err := parseStrings(iter.Value())
		if err != nil {
			return nil, err
		}
		groups = append(groups, GroupDecl{
			Name:    iter.Label(),
			Members: members,
			Pos:     iter.Value().Pos(),
		})
	}
	return groups, nil
}

func parseStrings(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// toValue converts a concrete CUE value to an ir.Value.
// Floats are forbidden.
func toValue(v cue.Value) (ir.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Int(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		list := ir.List{}
		for iter.Next() {
			item, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.Object{}
		for iter.Next() {
			item, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = item
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   "when",
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	case cue.BottomKind:
		return nil, &CompileError{
			Field:   "when",
			Message: fmt.Sprintf("condition value must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   "when",
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
