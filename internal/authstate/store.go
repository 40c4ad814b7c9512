// Package authstate holds pending OAuth anti-forgery state tokens. Each token
// binds one authorization redirect to one callback and is consumed exactly
// once; an unknown or replayed token is rejected at Take. Entries carry no
// expiry in this minimal design.
package authstate

import "context"

type Store interface {
	// Put registers a pending authorization for the user.
	Put(ctx context.Context, state, userID string) error
	// Take consumes the state token and returns the bound user id. A token
	// that was never stored, or was already taken, reports ok=false.
	Take(ctx context.Context, state string) (userID string, ok bool, err error)
}
