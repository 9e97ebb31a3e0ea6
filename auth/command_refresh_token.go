package auth

import (
	"context"

	"github.com/goliatone/go-blogify/persistence"
)

// RefreshAccessToken trades a stored refresh token for a new access
// token. The refresh token itself is not rotated.
func (w *Workflow) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	ctx, cancel, err := w.begin(ctx, "token refresh")
	defer cancel()
	if err != nil {
		return "", err
	}

	if refreshToken == "" {
		return "", Unauthenticated("No refresh token provided")
	}

	claims, err := w.tokens.Verify(refreshToken)
	if err != nil {
		return "", InvalidToken("Invalid or expired refresh token")
	}

	userID := claims.UserID()
	if userID == "" {
		return "", InvalidToken("Invalid refresh token")
	}

	user, err := w.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return "", InvalidToken("Invalid refresh token")
		}
		return "", Internal(err, "failed to look up user")
	}

	// a logout or a newer login replaces the stored value
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return "", InvalidToken("Invalid refresh token")
	}

	accessToken, err := w.tokens.IssueAccessToken(userID)
	if err != nil {
		return "", Internal(err, "failed to issue access token")
	}

	return accessToken, nil
}
