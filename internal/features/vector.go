package features

// Vector is a feature vector over the fixed schema. Keys and their order
// are schema constants, so two vectors from the same extractor version are
// always column-aligned.
type Vector struct {
	values map[string]float64
}

// Get returns the value for a feature name, 0 when the name is outside the
// schema.
func (v Vector) Get(name string) float64 {
	return v.values[name]
}

// Names returns the feature names in schema order.
func (v Vector) Names() []string {
	return Names()
}

// Values returns the feature values in schema order.
func (v Vector) Values() []float64 {
	out := make([]float64, len(schema))
	for i, name := range schema {
		out[i] = v.values[name]
	}
	return out
}

// Len returns the number of features in the schema.
func (v Vector) Len() int {
	return len(schema)
}

// Row aligns the vector to an arbitrary column order, padding columns that
// are not in this vector with 0. Used at inference time to match the
// column set the model was trained on.
func (v Vector) Row(columns []string) []float64 {
	out := make([]float64, len(columns))
	for i, name := range columns {
		out[i] = v.values[name]
	}
	return out
}
