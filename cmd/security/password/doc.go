// Package password provides password hashing and verification for usersvc.
//
// It implements Argon2id hashing using a PHC-like encoded string format and includes:
// - Configurable Argon2id parameters (via environment variables)
// - Strict hash decoding and verification with anti-DoS bounds
// - A bounded worker Pool so hashing never serializes unrelated requests
//
// Security notes:
// - Hash strings are treated as untrusted input during Verify and are validated accordingly.
// - Verification refuses hashes with parameters that exceed reasonable bounds.
// - There is no password policy here: any non-oversized plaintext is accepted.
package password
