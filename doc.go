// Package tourdesk implements the backend for a tour-operator registry:
// users, operator companies, and guide assignments, fronted by JWT
// authentication and role/status gated authorization.
//
// Authentication:
//   - Credentials are verified against bcrypt digests stored on the user
//     record. Unknown emails and wrong passwords surface the same error so
//     the login endpoint cannot be used to enumerate accounts.
//   - Successful logins mint an HS256 JWT whose subject is the user's email.
//     Tokens are stateless; expiry is the only lifecycle bound.
//
// Authorization:
//   - AccessGate resolves the token subject back to a user row on every
//     request and evaluates predicates against the row's current role and
//     status references. Role and status live in lookup tables so their
//     meaning can change without touching user rows, and gates always read
//     the live value, never a claim cached inside the token.
package tourdesk
