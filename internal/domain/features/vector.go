package features

import (
	"github.com/okian/octagon/internal/domain/errs"
)

// Vector is an ordered set of named feature values. NaN marks a missing
// value the classifiers treat as absent.
type Vector struct {
	names  []string
	values []float64
	pos    map[string]int
}

func newVector(capacity int) *Vector {
	return &Vector{
		names:  make([]string, 0, capacity),
		values: make([]float64, 0, capacity),
		pos:    make(map[string]int, capacity),
	}
}

func (v *Vector) add(name string, value float64) {
	if i, ok := v.pos[name]; ok {
		v.values[i] = value
		return
	}
	v.pos[name] = len(v.names)
	v.names = append(v.names, name)
	v.values = append(v.values, value)
}

// Len returns the number of features.
func (v *Vector) Len() int { return len(v.names) }

// Names returns feature names in assembly order.
func (v *Vector) Names() []string { return append([]string(nil), v.names...) }

// Values returns feature values in assembly order.
func (v *Vector) Values() []float64 { return append([]float64(nil), v.values...) }

// Get returns the value of name and whether it is present.
func (v *Vector) Get(name string) (float64, bool) {
	i, ok := v.pos[name]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Has reports whether name is present.
func (v *Vector) Has(name string) bool {
	_, ok := v.pos[name]
	return ok
}

// Schema is a classifier's declared, ordered input contract.
type Schema struct {
	Model string
	Names []string
}

// Reconcile selects and orders exactly the features schema declares. It
// fails with a SchemaMismatchError naming every absent feature.
func Reconcile(v *Vector, schema Schema) ([]float64, error) {
	out := make([]float64, len(schema.Names))
	var missing []string
	for i, name := range schema.Names {
		j, ok := v.pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[i] = v.values[j]
	}
	if len(missing) > 0 {
		return nil, &errs.SchemaMismatchError{Model: schema.Model, Missing: missing}
	}
	return out, nil
}

// Validate checks that every name in schema can be produced by the
// assembler, so version skew surfaces at startup rather than per request.
func (s Schema) Validate(includeMethod bool) error {
	known := make(map[string]struct{})
	for _, n := range Catalog(includeMethod) {
		known[n] = struct{}{}
	}
	var missing []string
	for _, n := range s.Names {
		if _, ok := known[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &errs.SchemaMismatchError{Model: s.Model, Missing: missing}
	}
	return nil
}
