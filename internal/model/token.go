package model

// TokenManager issues and validates session tokens.
type TokenManager interface {
	GenerateSessionToken(sessionID string) (string, error)
	ParseSessionToken(token string) (string, error)
}
