package engine

import (
	"github.com/roach88/siddur/internal/ir"
)

// SelectSegments returns, in registry declaration order, the keys of every
// annotation that applies to svc and whose conditions all hold for snap.
//
// An empty result is a non-nil empty slice. An unknown service type is
// rejected before any matching.
func SelectSegments(svc ir.ServiceType, snap ir.DateConditions, reg *ir.Registry) ([]string, error) {
	if err := svc.Check(); err != nil {
		return nil, err
	}
	return selectFrom(reg.Annotations(), svc, snap), nil
}

func selectFrom(annotations []ir.Annotation, svc ir.ServiceType, snap ir.DateConditions) []string {
	keys := []string{}
	for _, a := range annotations {
		if a.AppliesTo(svc) && matchAll(a.Conditions, snap) {
			keys = append(keys, a.Key)
		}
	}
	return keys
}

// matchAll is a pure conjunction. No conditions means a match.
func matchAll(conds []ir.Condition, snap ir.DateConditions) bool {
	for _, c := range conds {
		if !matchCondition(c, snap) {
			return false
		}
	}
	return true
}

// matchCondition evaluates one condition. Anything it does not recognise
// (unknown field, unknown variant, range on a non-range field) does not
// match.
func matchCondition(c ir.Condition, snap ir.DateConditions) bool {
	switch cond := c.(type) {
	case ir.Always:
		return cond.Include

	case ir.Equals:
		v, ok := snap.Value(cond.Field)
		return ok && ir.Equal(v, cond.Value)

	case ir.OneOf:
		v, ok := snap.Value(cond.Field)
		if !ok {
			return false
		}
		for _, want := range cond.Values {
			if ir.Equal(v, want) {
				return true
			}
		}
		return false

	case ir.Between:
		if cond.Field != ir.FieldOmerDay {
			return false
		}
		return cond.Min <= snap.OmerDay && snap.OmerDay <= cond.Max

	default:
		return false
	}
}
