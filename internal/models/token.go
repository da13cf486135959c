package models

import "time"

// TokenResponse is returned by signup, login and refresh.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	TenantID     string    `json:"tenant_id"`
	Role         string    `json:"role"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshSession is what the refresh-token store keeps per issued token.
type RefreshSession struct {
	UserID   string    `json:"user_id"`
	TenantID string    `json:"tenant_id"`
	Role     string    `json:"role"`
	IssuedAt time.Time `json:"issued_at"`
}
