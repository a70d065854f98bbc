package auth

// JWTVerifier verifies bearer tokens for the auth middleware
type JWTVerifier interface {
	// VerifyToken returns the claims of a valid token, or domain.ErrUnauthorized
	VerifyToken(tokenString string) (*SupabaseClaims, error)

	// Close releases resources such as the JWKS refresh
	Close() error
}
