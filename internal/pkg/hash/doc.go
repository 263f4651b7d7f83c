// Package hash hashes and verifies secrets.
//
// Bcrypt and Argon2id are slow, salted hashes for credentials. HMACSHA256 is a
// keyed digest used for verification codes, which only need to be unreadable
// at rest for the few minutes they live.
package hash
