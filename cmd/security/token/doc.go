// Package token issues and verifies the bearer tokens handed out at login.
//
// Tokens are compact JWS (three dot-separated base64url segments) signed with
// HMAC-SHA256 and a server-held secret. The claim set is minimal:
//   - sub: the user id (decimal)
//   - iat: issue time
//   - iss: configured issuer
//
// Expiry is opt-in. With the default TTL of zero no "exp" claim is written and a
// token stays valid until the secret rotates; this is a deliberate, weak policy.
//
// Environment:
//   - USRV_TOKEN_SECRET (required, >= 32 bytes)
//   - USRV_TOKEN_ISSUER, USRV_TOKEN_TTL, USRV_TOKEN_CLOCK_SKEW (optional)
package token
