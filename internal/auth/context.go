// internal/auth/context.go
//
// Request-scoped user identity.
//
// Usage
// -----
//     // After the session cookie verifies, attach the user.
//     ctx = auth.WithUser(ctx, u)
//
//     // Downstream handlers retrieve it.
//     u, ok := auth.UserFrom(ctx)
//
// Notes
// -----
// • The package never reads cookies itself.  `RequireUser` takes an accessor
//   (normally session.Manager.User) so tests can inject any identity source.
// • Oxford commas, two spaces after periods.

package auth

import "context"

// User is the identity of a logged-in platform account.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsInstructor bool   `json:"is_instructor"`
}

// Name joins first and last name, skipping blanks.
func (u User) Name() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom extracts the user from ctx.  It returns (User{}, false) if none is
// set.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

// UserID is shorthand for the ID of the context user.
func UserID(ctx context.Context) (int64, bool) {
	u, ok := UserFrom(ctx)
	return u.ID, ok
}
