// Package common contains shared constants, sentinel errors and the
// client-facing error type used across Enraizado components.
package common

// SessionCookieName is the cookie that carries the opaque session token.
const SessionCookieName = "session_id"

// TokenByteLength is the number of random bytes behind activation and
// session tokens. Hex encoding doubles it to 96 characters.
const TokenByteLength = 48
