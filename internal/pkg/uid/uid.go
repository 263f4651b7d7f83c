package uid

// StringID generates opaque string identifiers (correlation ids, idempotency keys).
type StringID interface {
	Generate() string
}

// NumberID generates time-ordered numeric identifiers (event ids).
type NumberID interface {
	Generate() int64
}
