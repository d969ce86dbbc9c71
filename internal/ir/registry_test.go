package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnnotations() []Annotation {
	return []Annotation{
		{Key: "opening", Services: []ServiceType{Morning, Afternoon, Evening}, Conditions: []Condition{Always{Include: true}}},
		{Key: "amidah_wind", Services: []ServiceType{Morning}, Conditions: []Condition{Equals{Field: FieldWindInsertion, Value: Bool(true)}}},
		{Key: "half_praise", Services: []ServiceType{Morning}, Conditions: []Condition{OneOf{Field: FieldPraiseLevel, Values: List{String("partial")}}}},
		{Key: "omer_count", Services: []ServiceType{Evening}, Conditions: []Condition{Between{Field: FieldOmerDay, Min: 1, Max: 49}}},
	}
}

func TestNewRegistryPreservesOrder(t *testing.T) {
	reg, err := NewRegistry(sampleAnnotations(), []Group{{Name: "amidah", Members: []string{"amidah_wind"}}})
	require.NoError(t, err)

	keys := make([]string, 0, reg.Len())
	for _, a := range reg.Annotations() {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"opening", "amidah_wind", "half_praise", "omer_count"}, keys)

	a, ok := reg.Lookup("omer_count")
	require.True(t, ok)
	assert.True(t, a.AppliesTo(Evening))
	assert.False(t, a.AppliesTo(Morning))

	members, ok := reg.Group("amidah")
	require.True(t, ok)
	assert.Equal(t, []string{"amidah_wind"}, members)
}

func TestNewRegistryIsolatedFromCaller(t *testing.T) {
	anns := sampleAnnotations()
	groups := []Group{{Name: "g", Members: []string{"opening"}}}
	reg, err := NewRegistry(anns, groups)
	require.NoError(t, err)
	digest := reg.Digest()

	anns[0].Key = "mutated"
	anns[1].Services[0] = Evening
	groups[0].Members[0] = "mutated"

	a, ok := reg.Lookup("opening")
	require.True(t, ok)
	assert.Equal(t, "opening", a.Key)
	wind, _ := reg.Lookup("amidah_wind")
	assert.Equal(t, []ServiceType{Morning}, wind.Services)
	members, _ := reg.Group("g")
	assert.Equal(t, []string{"opening"}, members)

	out := reg.Annotations()
	out[0].Key = "changed"
	assert.Equal(t, "opening", reg.Annotations()[0].Key)
	assert.Equal(t, digest, reg.Digest())
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	anns := append(sampleAnnotations(), Annotation{Key: "opening", Services: []ServiceType{Morning}})
	_, err := NewRegistry(anns, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"opening"`)

	_, err = NewRegistry(nil, []Group{{Name: "g"}, {Name: "g"}})
	require.Error(t, err)
}

func TestRegistryDigest(t *testing.T) {
	r1, err := NewRegistry(sampleAnnotations(), nil)
	require.NoError(t, err)
	r2, err := NewRegistry(sampleAnnotations(), nil)
	require.NoError(t, err)
	assert.Equal(t, r1.Digest(), r2.Digest())
	assert.Len(t, r1.Digest(), 64)

	reordered := sampleAnnotations()
	reordered[0], reordered[1] = reordered[1], reordered[0]
	r3, err := NewRegistry(reordered, nil)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Digest(), r3.Digest(), "declaration order is part of the digest")

	changed := sampleAnnotations()
	changed[3].Conditions = []Condition{Between{Field: FieldOmerDay, Min: 1, Max: 33}}
	r4, err := NewRegistry(changed, nil)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Digest(), r4.Digest())

	r5, err := NewRegistry(sampleAnnotations(), []Group{{Name: "g", Members: []string{"opening"}}})
	require.NoError(t, err)
	assert.NotEqual(t, r1.Digest(), r5.Digest())
}

func TestConditionStrings(t *testing.T) {
	assert.Equal(t, "holiday == null", Equals{Field: FieldHoliday, Value: Null{}}.String())
	assert.Equal(t, `praise_level in ["partial", "full"]`, OneOf{Field: FieldPraiseLevel, Values: Strings("partial", "full")}.String())
	assert.Equal(t, "1 <= omer_day <= 49", Between{Field: FieldOmerDay, Min: 1, Max: 49}.String())
	assert.Equal(t, "always == true", Always{Include: true}.String())
	assert.Equal(t, "always", Always{}.Key())
	assert.Equal(t, "omer_day", Between{Field: FieldOmerDay}.Key())
}
