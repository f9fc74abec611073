// Package accounts implements the account and authentication core of the
// user API: bcrypt credential verification, signed bearer tokens, a
// reversible (soft delete) user lifecycle, and an append only login audit
// trail.
//
// Key behaviors:
//   - Users carry an explicit lifecycle Status persisted via Bun alongside
//     the deleted_at timestamp. Active and Deleted are the only two states
//     and the transition between them is reversible.
//   - Tokens are HS256 JWTs with the flat claim set
//     {phone, type_user, issued, expiration}. Validation performs a live
//     lookup of the subject against the user store, so soft deleting an
//     account revokes every outstanding token for it.
//   - Phone and email uniqueness is enforced against the full users table,
//     including soft deleted rows.
//   - Login audit records are best effort: a failure to append never fails
//     the authentication that triggered it.
package accounts
