package common

// AuthorizationHeaderName carries the bearer session token on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header value.
const BearerPrefix = "Bearer "

// ResetTokenSize is the number of random bytes in a password reset token.
const ResetTokenSize = 20
