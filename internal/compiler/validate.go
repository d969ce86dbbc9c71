package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/siddur/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrNoSegments = "E100" // registry declares no segments

	// Segment errors (E101-E119)
	ErrSegmentKeyEmpty     = "E101" // key is required
	ErrDuplicateKey        = "E102" // duplicate segment key
	ErrNoServices          = "E103" // at least one service required
	ErrUnknownService      = "E104" // service outside morning/afternoon/evening
	ErrUnknownConditionKey = "E105" // condition key names no snapshot field
	ErrValueKind           = "E106" // value kind does not match the field
	ErrMalformedRange      = "E107" // range is not {min, max} on omer_day
	ErrMalformedList       = "E108" // empty or nested membership list
	ErrUnknownEnumValue    = "E109" // unknown holiday, praise level or weekday
	ErrNullNotAllowed      = "E110" // null outside the holiday field
	ErrAlwaysNotBool       = "E111" // always takes true or false
	ErrDuplicateService    = "E112" // service listed twice
	ErrOmerOutOfRange      = "E113" // omer day outside 0..49

	// Group errors (E120-E129)
	ErrGroupEmpty       = "E120" // group has no members
	ErrGroupMemberEmpty = "E121" // empty member key
	ErrGroupCycle       = "E122" // group contains itself
)

// ValidationError represents a registry validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a parsed registry against the condition protocol.
// Returns all errors found (does not fail-fast).
func Validate(src *Source) []ValidationError {
	var errs []ValidationError

	if len(src.Segments) == 0 {
		errs = append(errs, ValidationError{
			Field:   "segments",
			Message: "at least one segment is required",
			Code:    ErrNoSegments,
		})
	}

	seen := make(map[string]int)
	for i, seg := range src.Segments {
		path := fmt.Sprintf("segments[%d]", i)
		line := seg.Pos.Line()

		if strings.TrimSpace(seg.Key) == "" {
			errs = append(errs, ValidationError{
				Field:   path + ".key",
				Message: "key is required and must be non-empty",
				Code:    ErrSegmentKeyEmpty,
				Line:    line,
			})
		} else if first, dup := seen[seg.Key]; dup {
			errs = append(errs, ValidationError{
				Field:   path + ".key",
				Message: fmt.Sprintf("duplicate segment key %q (first declared at segments[%d])", seg.Key, first),
				Code:    ErrDuplicateKey,
				Line:    line,
			})
		} else {
			seen[seg.Key] = i
		}

		errs = append(errs, validateServices(seg, path, line)...)

		for _, cond := range seg.When {
			errs = append(errs, validateCondition(cond, fmt.Sprintf("%s.when.%s", path, cond.Key))...)
		}
	}

	errs = append(errs, validateGroups(src.Groups)...)
	return errs
}

func validateServices(seg SegmentDecl, path string, line int) []ValidationError {
	var errs []ValidationError

	if len(seg.Services) == 0 {
		errs = append(errs, ValidationError{
			Field:   path + ".services",
			Message: fmt.Sprintf("segment %q must apply to at least one service", seg.Key),
			Code:    ErrNoServices,
			Line:    line,
		})
	}

	seen := make(map[ir.ServiceType]bool)
	for j, name := range seg.Services {
		svc, err := ir.ParseServiceType(name)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.services[%d]", path, j),
				Message: fmt.Sprintf("unknown service type %q, must be morning, afternoon or evening", name),
				Code:    ErrUnknownService,
				Line:    line,
			})
			continue
		}
		if seen[svc] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.services[%d]", path, j),
				Message: fmt.Sprintf("service %q listed more than once", svc),
				Code:    ErrDuplicateService,
				Line:    line,
			})
		}
		seen[svc] = true
	}

	return errs
}

// validateCondition checks one when entry. Every shape the engine would
// not understand is rejected here, so matching never sees it.
func validateCondition(cond ConditionDecl, path string) []ValidationError {
	line := cond.Pos.Line()

	if cond.Key == ir.AlwaysKey {
		if _, ok := cond.Value.(ir.Bool); !ok {
			return []ValidationError{{
				Field:   path,
				Message: fmt.Sprintf("always must be true or false, got %s", ir.KindOf(cond.Value)),
				Code:    ErrAlwaysNotBool,
				Line:    line,
			}}
		}
		return nil
	}

	field := ir.Field(cond.Key)
	if !field.Known() {
		return []ValidationError{{
			Field:   path,
			Message: fmt.Sprintf("unknown condition key %q", cond.Key),
			Code:    ErrUnknownConditionKey,
			Line:    line,
		}}
	}

	switch val := cond.Value.(type) {
	case ir.Object:
		return validateRange(field, val, path, line)
	case ir.List:
		if len(val) == 0 {
			return []ValidationError{{
				Field:   path,
				Message: "membership list must not be empty",
				Code:    ErrMalformedList,
				Line:    line,
			}}
		}
		var errs []ValidationError
		for j, item := range val {
			errs = append(errs, validateScalar(field, item, fmt.Sprintf("%s[%d]", path, j), line)...)
		}
		return errs
	default:
		return validateScalar(field, val, path, line)
	}
}

func validateRange(field ir.Field, obj ir.Object, path string, line int) []ValidationError {
	if field != ir.FieldOmerDay {
		return []ValidationError{{
			Field:   path,
			Message: fmt.Sprintf("ranges apply only to %s, not %s", ir.FieldOmerDay, field),
			Code:    ErrMalformedRange,
			Line:    line,
		}}
	}

	minVal, minOK := obj["min"].(ir.Int)
	maxVal, maxOK := obj["max"].(ir.Int)
	if !minOK || !maxOK || len(obj) != 2 {
		return []ValidationError{{
			Field:   path,
			Message: "range must be {min: int, max: int}",
			Code:    ErrMalformedRange,
			Line:    line,
		}}
	}

	var errs []ValidationError
	if minVal > maxVal {
		errs = append(errs, ValidationError{
			Field:   path,
			Message: fmt.Sprintf("range min %d is greater than max %d", minVal, maxVal),
			Code:    ErrMalformedRange,
			Line:    line,
		})
	}
	for _, n := range []ir.Int{minVal, maxVal} {
		if n < 0 || n > ir.MaxOmerDay {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("range bound %d outside 0..%d", n, ir.MaxOmerDay),
				Code:    ErrOmerOutOfRange,
				Line:    line,
			})
		}
	}
	return errs
}

func validateScalar(field ir.Field, v ir.Value, path string, line int) []ValidationError {
	switch val := v.(type) {
	case ir.Null:
		if field != ir.FieldHoliday {
			return []ValidationError{{
				Field:   path,
				Message: fmt.Sprintf("null is only valid for %s", ir.FieldHoliday),
				Code:    ErrNullNotAllowed,
				Line:    line,
			}}
		}
		return nil
	case ir.List, ir.Object:
		return []ValidationError{{
			Field:   path,
			Message: fmt.Sprintf("expected %s, got nested %s", field.Kind(), ir.KindOf(v)),
			Code:    ErrMalformedList,
			Line:    line,
		}}
	case ir.String:
		if field.Kind() != "string" {
			break
		}
		if !validEnum(field, string(val)) {
			return []ValidationError{{
				Field:   path,
				Message: fmt.Sprintf("unknown %s value %q", field, string(val)),
				Code:    ErrUnknownEnumValue,
				Line:    line,
			}}
		}
		return nil
	case ir.Int:
		if field.Kind() != "int" {
			break
		}
		if val < 0 || val > ir.MaxOmerDay {
			return []ValidationError{{
				Field:   path,
				Message: fmt.Sprintf("omer day %d outside 0..%d", val, ir.MaxOmerDay),
				Code:    ErrOmerOutOfRange,
				Line:    line,
			}}
		}
		return nil
	case ir.Bool:
		if field.Kind() == "bool" {
			return nil
		}
	}

	return []ValidationError{{
		Field:   path,
		Message: fmt.Sprintf("%s expects %s, got %s", field, field.Kind(), ir.KindOf(v)),
		Code:    ErrValueKind,
		Line:    line,
	}}
}

func validEnum(field ir.Field, s string) bool {
	switch field {
	case ir.FieldHoliday:
		h := ir.Holiday(s)
		return h != ir.NoHoliday && h.Valid()
	case ir.FieldPraiseLevel:
		return ir.PraiseLevel(s).Valid()
	case ir.FieldWeekday:
		return ir.WeekdayCategory(s).Valid()
	default:
		return false
	}
}

func validateGroups(groups []GroupDecl) []ValidationError {
	var errs []ValidationError

	for _, g := range groups {
		path := fmt.Sprintf("groups.%s", g.Name)
		if len(g.Members) == 0 {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("group %q has no members", g.Name),
				Code:    ErrGroupEmpty,
				Line:    g.Pos.Line(),
			})
		}
		for j, m := range g.Members {
			if strings.TrimSpace(m) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s[%d]", path, j),
					Message: "member key must be non-empty",
					Code:    ErrGroupMemberEmpty,
					Line:    g.Pos.Line(),
				})
			}
		}
	}

	for _, cycle := range AnalyzeGroups(groups) {
		errs = append(errs, ValidationError{
			Field:   "groups." + cycle.Path[0],
			Message: cycle.Message,
			Code:    ErrGroupCycle,
		})
	}

	return errs
}
