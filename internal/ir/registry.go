package ir

import (
	"fmt"
	"slices"
)

// Annotation declares when a content segment applies: the services it is
// recited in and the conditions that must all hold.
type Annotation struct {
	Key        string        `json:"key"`
	Services   []ServiceType `json:"services"`
	Conditions []Condition   `json:"-"`
}

// AppliesTo reports whether svc is one of the annotation's services.
func (a Annotation) AppliesTo(svc ServiceType) bool {
	return slices.Contains(a.Services, svc)
}

// Group names an ordered list of segment keys that expands in place.
// Members may themselves be groups.
type Group struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Registry is the ordered, immutable table of annotations and groups.
// Build it once with NewRegistry and share it by pointer.
type Registry struct {
	annotations []Annotation
	index       map[string]int
	groups      map[string][]string
	groupNames  []string
	digest      string
}

// NewRegistry copies annotations and groups into a Registry, preserving
// declaration order. It rejects duplicate annotation keys and duplicate
// group names; deeper validation is the compiler's job.
func NewRegistry(annotations []Annotation, groups []Group) (*Registry, error) {
	r := &Registry{
		annotations: make([]Annotation, len(annotations)),
		index:       make(map[string]int, len(annotations)),
		groups:      make(map[string][]string, len(groups)),
		groupNames:  make([]string, 0, len(groups)),
	}

	for i, a := range annotations {
		if _, dup := r.index[a.Key]; dup {
			return nil, fmt.Errorf("duplicate annotation key %q", a.Key)
		}
		r.index[a.Key] = i
		r.annotations[i] = Annotation{
			Key:        a.Key,
			Services:   slices.Clone(a.Services),
			Conditions: slices.Clone(a.Conditions),
		}
	}

	for _, g := range groups {
		if _, dup := r.groups[g.Name]; dup {
			return nil, fmt.Errorf("duplicate group %q", g.Name)
		}
		r.groups[g.Name] = slices.Clone(g.Members)
		r.groupNames = append(r.groupNames, g.Name)
	}

	digest, err := r.computeDigest()
	if err != nil {
		return nil, err
	}
	r.digest = digest
	return r, nil
}

// Len returns the number of annotations.
func (r *Registry) Len() int {
	return len(r.annotations)
}

// Annotations returns a copy of the annotations in declaration order.
func (r *Registry) Annotations() []Annotation {
	return slices.Clone(r.annotations)
}

// Lookup returns the annotation declared under key.
func (r *Registry) Lookup(key string) (Annotation, bool) {
	i, ok := r.index[key]
	if !ok {
		return Annotation{}, false
	}
	return r.annotations[i], true
}

// Group returns the members of the named group.
func (r *Registry) Group(name string) ([]string, bool) {
	members, ok := r.groups[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(members), true
}

// Groups returns the groups in declaration order.
func (r *Registry) Groups() []Group {
	out := make([]Group, len(r.groupNames))
	for i, name := range r.groupNames {
		out[i] = Group{Name: name, Members: slices.Clone(r.groups[name])}
	}
	return out
}

// Digest identifies the registry content. Two registries with the same
// annotations, conditions and groups in the same order share a digest.
func (r *Registry) Digest() string {
	return r.digest
}

func (r *Registry) computeDigest() (string, error) {
	anns := make(List, len(r.annotations))
	for i, a := range r.annotations {
		services := make(List, len(a.Services))
		for j, s := range a.Services {
			services[j] = String(s)
		}
		conds := make(List, len(a.Conditions))
		for j, c := range a.Conditions {
			conds[j] = Object{"key": String(c.Key()), "value": ConditionValue(c)}
		}
		anns[i] = Object{
			"key":        String(a.Key),
			"services":   services,
			"conditions": conds,
		}
	}

	groups := make(List, len(r.groupNames))
	for i, name := range r.groupNames {
		groups[i] = Object{"name": String(name), "members": Strings(r.groups[name]...)}
	}

	data, err := MarshalCanonical(Object{
		"format":      String(RegistryFormat),
		"annotations": anns,
		"groups":      groups,
	})
	if err != nil {
		return "", fmt.Errorf("registry digest: %w", err)
	}
	return hashWithDomain(DomainRegistry, data), nil
}
