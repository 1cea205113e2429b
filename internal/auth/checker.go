package auth

import "context"

var (
	_ Checker = (*TokenVerifier)(nil)
	_ Checker = (*StaticChecker)(nil)
)

// Checker resolves a bearer token to the id of the user it was issued for.
type Checker interface {
	UserID(ctx context.Context, token string) (string, error)
}

// StaticChecker maps fixed tokens to users. Used by tests and local runs
// where no signing secret is configured.
type StaticChecker struct {
	Tokens map[string]string
}

func (c *StaticChecker) UserID(_ context.Context, token string) (string, error) {
	userID, ok := c.Tokens[token]
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}
