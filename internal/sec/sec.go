// Package sec provides the authentication primitives for the web application.
//
// Authentication is session based: a successful login writes the owner's ID
// into a signed cookie session, and a per-request middleware resolves that
// session back into a request-scoped user value. Credentials are validated
// against a bcrypt password hash stored in the database.
//
// # Components
//
//   - [Middleware]: installs the signed cookie session store
//   - [ResolveUser]: echo middleware resolving the session to the current user
//   - [SignIn], [SignOut]: session state transitions
//   - [UserFrom], [WithUser]: request-scoped accessors for the signed-in user
//   - [HashPassword], [ComparePassword]: bcrypt password hashing utilities
package sec
