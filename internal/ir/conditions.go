package ir

import (
	"encoding/json"
	"fmt"
)

// WeekdayCategory distinguishes the sabbath from every other day.
type WeekdayCategory string

const (
	Ordinary WeekdayCategory = "ordinary"
	Sabbath  WeekdayCategory = "sabbath"
)

// Valid reports whether w is a known category.
func (w WeekdayCategory) Valid() bool {
	return w == Ordinary || w == Sabbath
}

// Holiday identifies a festival. NoHoliday is the empty string.
type Holiday string

const (
	NoHoliday         Holiday = ""
	NewYear           Holiday = "new_year"
	DayOfAtonement    Holiday = "day_of_atonement"
	Tabernacles       Holiday = "tabernacles"
	EighthDayAssembly Holiday = "eighth_day_assembly"
	Passover          Holiday = "passover"
	Pentecost         Holiday = "pentecost"
	Dedication        Holiday = "dedication"
	Lots              Holiday = "lots"
)

// Holidays returns every named holiday.
func Holidays() []Holiday {
	return []Holiday{NewYear, DayOfAtonement, Tabernacles, EighthDayAssembly, Passover, Pentecost, Dedication, Lots}
}

// Valid reports whether h is a named holiday or NoHoliday.
func (h Holiday) Valid() bool {
	if h == NoHoliday {
		return true
	}
	for _, known := range Holidays() {
		if h == known {
			return true
		}
	}
	return false
}

// PraiseLevel is the degree of festive psalm recitation.
type PraiseLevel string

const (
	PraiseNone    PraiseLevel = "none"
	PraisePartial PraiseLevel = "partial"
	PraiseFull    PraiseLevel = "full"
)

// Valid reports whether p is a known level.
func (p PraiseLevel) Valid() bool {
	switch p {
	case PraiseNone, PraisePartial, PraiseFull:
		return true
	}
	return false
}

// Field names a snapshot field as it appears in configuration.
type Field string

const (
	FieldWeekday             Field = "weekday"
	FieldHoliday             Field = "holiday"
	FieldNewMonth            Field = "new_month"
	FieldIntermediateDays    Field = "intermediate_days"
	FieldFastDay             Field = "fast_day"
	FieldTenDaysOfRepentance Field = "ten_days_of_repentance"
	FieldOmerDay             Field = "omer_day"
	FieldWindInsertion       Field = "wind_insertion"
	FieldRainInsertion       Field = "rain_insertion"
	FieldPraiseLevel         Field = "praise_level"
	FieldFullStandingPrayer  Field = "full_standing_prayer"
)

// AlwaysKey is the configuration key of the unconditional condition. It is
// not a snapshot field.
const AlwaysKey = "always"

// MaxOmerDay is the last day of the counting period.
const MaxOmerDay = 49

var fieldKinds = map[Field]string{
	FieldWeekday:             "string",
	FieldHoliday:             "string",
	FieldNewMonth:            "bool",
	FieldIntermediateDays:    "bool",
	FieldFastDay:             "bool",
	FieldTenDaysOfRepentance: "bool",
	FieldOmerDay:             "int",
	FieldWindInsertion:       "bool",
	FieldRainInsertion:       "bool",
	FieldPraiseLevel:         "string",
	FieldFullStandingPrayer:  "bool",
}

// Fields returns every snapshot field in declaration order.
func Fields() []Field {
	return []Field{
		FieldWeekday, FieldHoliday, FieldNewMonth, FieldIntermediateDays,
		FieldFastDay, FieldTenDaysOfRepentance, FieldOmerDay,
		FieldWindInsertion, FieldRainInsertion, FieldPraiseLevel,
		FieldFullStandingPrayer,
	}
}

// Known reports whether f names a snapshot field.
func (f Field) Known() bool {
	_, ok := fieldKinds[f]
	return ok
}

// Kind returns the value kind of the field ("bool", "int" or "string"),
// or "" for an unknown field.
func (f Field) Kind() string {
	return fieldKinds[f]
}

// DateConditions is the snapshot of liturgical conditions in force for one
// (civil date, service type) pair. It is a plain comparable value.
type DateConditions struct {
	Weekday             WeekdayCategory
	Holiday             Holiday
	NewMonth            bool
	IntermediateDays    bool
	FastDay             bool
	TenDaysOfRepentance bool
	OmerDay             int
	WindInsertion       bool
	RainInsertion       bool
	PraiseLevel         PraiseLevel
	FullStandingPrayer  bool
}

// Value returns the named field as a Value. The second result is false
// for an unknown field.
func (d DateConditions) Value(f Field) (Value, bool) {
	switch f {
	case FieldWeekday:
		return String(d.Weekday), true
	case FieldHoliday:
		if d.Holiday == NoHoliday {
			return Null{}, true
		}
		return String(d.Holiday), true
	case FieldNewMonth:
		return Bool(d.NewMonth), true
	case FieldIntermediateDays:
		return Bool(d.IntermediateDays), true
	case FieldFastDay:
		return Bool(d.FastDay), true
	case FieldTenDaysOfRepentance:
		return Bool(d.TenDaysOfRepentance), true
	case FieldOmerDay:
		return Int(d.OmerDay), true
	case FieldWindInsertion:
		return Bool(d.WindInsertion), true
	case FieldRainInsertion:
		return Bool(d.RainInsertion), true
	case FieldPraiseLevel:
		return String(d.PraiseLevel), true
	case FieldFullStandingPrayer:
		return Bool(d.FullStandingPrayer), true
	default:
		return nil, false
	}
}

// Object returns every field keyed by its configuration name.
func (d DateConditions) Object() Object {
	obj := make(Object, len(fieldKinds))
	for _, f := range Fields() {
		v, _ := d.Value(f)
		obj[string(f)] = v
	}
	return obj
}

// Canonical returns the RFC 8785 encoding of the snapshot.
func (d DateConditions) Canonical() ([]byte, error) {
	return MarshalCanonical(d.Object())
}

// Checksum returns the stable cache key for the snapshot: a domain
// separated SHA-256 over its canonical JSON. Snapshots that are equal
// field by field share a checksum regardless of the date they came from.
func (d DateConditions) Checksum() (string, error) {
	data, err := d.Canonical()
	if err != nil {
		return "", fmt.Errorf("conditions checksum: %w", err)
	}
	return hashWithDomain(DomainConditions, data), nil
}

// MarshalJSON encodes the snapshot in canonical form.
func (d DateConditions) MarshalJSON() ([]byte, error) {
	return d.Canonical()
}

// UnmarshalJSON decodes a snapshot written by MarshalJSON.
func (d *DateConditions) UnmarshalJSON(data []byte) error {
	var raw struct {
		Weekday             WeekdayCategory `json:"weekday"`
		Holiday             *Holiday        `json:"holiday"`
		NewMonth            bool            `json:"new_month"`
		IntermediateDays    bool            `json:"intermediate_days"`
		FastDay             bool            `json:"fast_day"`
		TenDaysOfRepentance bool            `json:"ten_days_of_repentance"`
		OmerDay             int             `json:"omer_day"`
		WindInsertion       bool            `json:"wind_insertion"`
		RainInsertion       bool            `json:"rain_insertion"`
		PraiseLevel         PraiseLevel     `json:"praise_level"`
		FullStandingPrayer  bool            `json:"full_standing_prayer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	holiday := NoHoliday
	if raw.Holiday != nil {
		holiday = *raw.Holiday
	}
	if !holiday.Valid() {
		return fmt.Errorf("unknown holiday %q", string(holiday))
	}
	if !raw.Weekday.Valid() {
		return fmt.Errorf("unknown weekday category %q", string(raw.Weekday))
	}
	if !raw.PraiseLevel.Valid() {
		return fmt.Errorf("unknown praise level %q", string(raw.PraiseLevel))
	}

	*d = DateConditions{
		Weekday:             raw.Weekday,
		Holiday:             holiday,
		NewMonth:            raw.NewMonth,
		IntermediateDays:    raw.IntermediateDays,
		FastDay:             raw.FastDay,
		TenDaysOfRepentance: raw.TenDaysOfRepentance,
		OmerDay:             raw.OmerDay,
		WindInsertion:       raw.WindInsertion,
		RainInsertion:       raw.RainInsertion,
		PraiseLevel:         raw.PraiseLevel,
		FullStandingPrayer:  raw.FullStandingPrayer,
	}
	return nil
}
