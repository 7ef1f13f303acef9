// Package orgauth implements the authentication, session, and authorization
// engine for a regionally partitioned account directory: one head-office
// region plus any number of branch regions, each with at most one
// administrator.
//
// Credential lifecycle:
//   - Passwords are generated with a complexity guarantee (lower, upper,
//     digit, symbol) and expire 90 days after issuance. An identity with an
//     expired credential cannot authenticate until an admin resets it.
//   - Digest computation sits behind PasswordAuthenticator. The default
//     SHA256Authenticator reproduces the legacy unsalted digest scheme so
//     existing rows keep verifying; BcryptAuthenticator is the recommended
//     replacement for deployments that can migrate stored digests.
//
// Sessions and throttling:
//   - SessionManager owns one current session per instance. Tokens are
//     opaque UUIDs persisted through the session store; a session is valid
//     only while its row exists and has not expired, so deleting the row
//     revokes it immediately.
//   - LoginThrottle locks a login after three consecutive failures for
//     fifteen minutes. The counter resets only on a successful login; the
//     window lapsing merely permits the next attempt.
//
// Authorization:
//   - Authorize is a pure decision function over (role, actor region,
//     target region). Super admins act everywhere, regional admins inside
//     their own region, plain users nowhere.
//   - The single-admin-per-region invariant is enforced transactionally by
//     AdminGuard at every mutation that could create or move an admin.
//
// Gateway orchestrates the pieces and exposes the login/logout protocol plus
// the idempotent super-admin and regional-admin provisioning workflows.
// Components emit audit events through ActivitySink; sinks run best-effort
// and never block the operation they describe.
package orgauth
