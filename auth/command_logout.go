package auth

import (
	"context"
)

// Logout revokes the stored refresh token when the caller is known.
// Calling it without an identity, or twice, succeeds.
func (w *Workflow) Logout(ctx context.Context, userID string) error {
	ctx, cancel, err := w.begin(ctx, "logout")
	defer cancel()
	if err != nil {
		return err
	}

	if userID == "" {
		return nil
	}

	if err := w.repo.Users().ClearRefreshToken(ctx, userID); err != nil {
		return Internal(err, "failed to revoke refresh token")
	}

	return nil
}
