// Package otp generates one-time verification codes.
//
// Codes come from crypto/rand through rand.Int, so every value in
// [0, 10^length) is equally likely and no modulo bias is introduced.
package otp
