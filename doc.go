// Package accounts implements the account lifecycle for a learning
// platform: local and social sign-in, quick checkout provisioning,
// profile management, and the admin surface for running the user base.
//
// Credential handling:
//   - Passwords are stored as bcrypt hashes. GeneratePassword produces the
//     random credentials used when an account is provisioned on behalf of
//     a buyer or by an admin.
//   - TokenService mints the short-lived signed tokens that back email
//     verification and password reset links. Session tokens carry a
//     sanitized account snapshot so handlers can render the current
//     profile without a store round trip.
//
// Lifecycle service:
//   - Service exposes the operations (Signup, Login, SocialLogin,
//     QuickCheckout, UpdateProfile, password flows, verification, and the
//     admin operations) over a RepositoryManager store boundary. Email
//     delivery goes through a Notifier and never blocks a response.
//   - Social identities are a provider/uid column pair on the account row.
//     A social login that matches only by email links the provider to the
//     existing account instead of creating a duplicate.
//
// HTTP surface:
//   - Controller mounts the REST routes on a fiber router, with session
//     middleware parsing bearer tokens and an admin guard on the
//     management routes. Errors carry categories and text codes that map
//     directly onto HTTP statuses.
package accounts
