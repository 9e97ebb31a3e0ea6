package auth

import (
	"context"

	"github.com/goliatone/go-blogify/persistence"
)

// CheckAuth resolves the session identity to its user
func (w *Workflow) CheckAuth(ctx context.Context, userID string) (*User, error) {
	ctx, cancel, err := w.begin(ctx, "session check")
	defer cancel()
	if err != nil {
		return nil, err
	}

	if userID == "" {
		return nil, Unauthenticated("Unauthorized - no token provided")
	}

	user, err := w.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, NotFound("User not found")
		}
		return nil, Internal(err, "failed to look up user")
	}

	return user, nil
}
