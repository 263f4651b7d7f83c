// Package validator validates request structs through struct tags.
//
// Usecases depend on the Validator interface; V10Validator backs it with
// go-playground/validator and English messages keyed by snake_case field.
package validator
