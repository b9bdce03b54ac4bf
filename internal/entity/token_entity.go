package entity

import "time"

// TokenClaims is the identity extracted from a validated access token.
type TokenClaims struct {
	UserId    int64     `json:"userId"`
	TokenId   string    `json:"tokenId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
