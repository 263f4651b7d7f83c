package validator

// Validator checks tagged structs before they reach business logic.
type Validator interface {
	// Validate returns nil or an error describing every failing field.
	Validate(data any) error
}
