// Package voteclient is the Go client for the voting and attendance API:
// token storage, an envelope-aware HTTP client, unverified JWT claims
// decoding, the login flows, and a reducer-driven session state machine.
//
// Session lifecycle:
//   - State is the single session snapshot (user, authenticated, loading,
//     error) and Reduce is the only way it changes. Coordinator owns the
//     state, runs the login flows, and stamps each attempt with a generation
//     so a stale response never overwrites a newer attempt.
//   - Any 401 from any endpoint clears the stored token and forces the
//     session into the signed-out state through the client's unauthorized
//     handlers; callers never have to check for expiry themselves.
//
// Login modalities:
//   - AdminLogin posts password credentials and maps the response's flat
//     fields into a User. LoginWithEmail and VerifyMagicLink receive a raw
//     JWT instead; ClaimsDecoder reads it without signature verification
//     (the server is the only authority, the client just displays) and
//     requires the identity claims before anyone is treated as signed in.
//
// Token stores:
//   - TokenStore abstracts credential persistence. MemoryTokenStore and
//     FileTokenStore live here; redis and SQLite backed stores live under
//     store/. Logout always clears the store even when the server call
//     fails.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing login,
//     OTP, magic-link, and logout events. Sinks run best-effort (errors are
//     logged) so you can forward to a database or queue without blocking
//     authentication.
package voteclient
