package ir

import (
	"fmt"
	"strings"
)

// Condition is a sealed sum type over the four condition shapes an
// annotation may declare. Only Equals, OneOf, Between and Always
// implement it.
type Condition interface {
	condition()

	// Key is the configuration key the condition was declared under.
	Key() string

	// String renders the condition for diagnostics.
	String() string
}

// Equals matches when the snapshot field equals Value. Null is a valid
// value for the holiday field and means "no holiday".
type Equals struct {
	Field Field
	Value Value
}

func (Equals) condition() {}

func (c Equals) Key() string { return string(c.Field) }

func (c Equals) String() string {
	return fmt.Sprintf("%s == %s", c.Field, FormatValue(c.Value))
}

// OneOf matches when the snapshot field equals any member of Values.
type OneOf struct {
	Field  Field
	Values []Value
}

func (OneOf) condition() {}

func (c OneOf) Key() string { return string(c.Field) }

func (c OneOf) String() string {
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		parts[i] = FormatValue(v)
	}
	return fmt.Sprintf("%s in [%s]", c.Field, strings.Join(parts, ", "))
}

// Between matches when Min <= field <= Max. Only the omer_day field
// supports ranges.
type Between struct {
	Field Field
	Min   int
	Max   int
}

func (Between) condition() {}

func (c Between) Key() string { return string(c.Field) }

func (c Between) String() string {
	return fmt.Sprintf("%d <= %s <= %d", c.Min, c.Field, c.Max)
}

// Always ignores the snapshot and matches iff Include is true.
type Always struct {
	Include bool
}

func (Always) condition() {}

func (Always) Key() string { return AlwaysKey }

func (c Always) String() string {
	return fmt.Sprintf("%s == %t", AlwaysKey, c.Include)
}

// ConditionValue renders a condition as the configuration value it was
// declared with. Used for registry digests and display.
func ConditionValue(c Condition) Value {
	switch cond := c.(type) {
	case Equals:
		return cond.Value
	case OneOf:
		return List(cond.Values)
	case Between:
		return Object{"min": Int(cond.Min), "max": Int(cond.Max)}
	case Always:
		return Bool(cond.Include)
	default:
		return Null{}
	}
}
