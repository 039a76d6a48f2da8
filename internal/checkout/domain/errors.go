package domain

import "sort"

// ErrorMap records which fields currently show a validation error.
type ErrorMap map[Field]bool

// Has reports whether f has an error.
func (m ErrorMap) Has(f Field) bool {
	return m[f]
}

// Clear removes the error for f.
func (m ErrorMap) Clear(f Field) {
	delete(m, f)
}

// Replace swaps the errors for step's fields with invalid. Entries for
// other steps are left alone.
func (m ErrorMap) Replace(step Step, invalid []Field) {
	for _, f := range step.Fields() {
		delete(m, f)
	}
	for _, f := range invalid {
		m[f] = true
	}
}

// Fields returns the fields with errors in sorted order.
func (m ErrorMap) Fields() []Field {
	out := make([]Field, 0, len(m))
	for f, bad := range m {
		if bad {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Copy returns an independent copy.
func (m ErrorMap) Copy() ErrorMap {
	out := make(ErrorMap, len(m))
	for f, bad := range m {
		if bad {
			out[f] = true
		}
	}
	return out
}
