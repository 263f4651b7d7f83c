// Package mail sends email.
//
// SMTP delivers through gomail; Retrying wraps any Mail with a capped
// exponential backoff for transient provider errors.
package mail
