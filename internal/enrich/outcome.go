package enrich

// Outcome is the result of one enrichment sub-fetch. A skipped fetch was never
// attempted; a fetch with Err set was attempted and degraded.
type Outcome[T any] struct {
	Value   T
	Err     error
	Skipped bool
}

// Get returns the value and whether it may be merged into the record
func (o Outcome[T]) Get() (T, bool) {
	if o.Skipped || o.Err != nil {
		var zero T
		return zero, false
	}
	return o.Value, true
}

// Degraded reports whether the fetch was attempted and failed
func (o Outcome[T]) Degraded() bool {
	return !o.Skipped && o.Err != nil
}

func skipped[T any]() Outcome[T] {
	return Outcome[T]{Skipped: true}
}

func outcomeOf[T any](v T, err error) Outcome[T] {
	return Outcome[T]{Value: v, Err: err}
}
