package domain

// TokenPair is what the auth endpoints return: the short-lived access token
// and the longer-lived refresh token, both HS256 JWTs.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"` // always "Bearer"
	ExpiresIn    int64  `json:"expiresIn"` // seconds until the access token expires
}
