package domain

// TokenVerifier verifies a bearer token and returns the authenticated caller
// ID. The engine never issues tokens or checks credentials; identity is
// resolved by the external auth collaborator and only verified here.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}
