package common

// AuthorizationHeaderName is the HTTP header carrying the access token.
const AuthorizationHeaderName = "Authorization"

// Accepted authorization schemes, e.g. "Bearer <token>" or "Token <token>".
const (
	BearerScheme = "Bearer"
	TokenScheme  = "Token"
)
