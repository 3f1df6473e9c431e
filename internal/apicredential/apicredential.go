package apicredential

import (
	"time"
)

// Credential is the decrypted view of a broker API connection.
type Credential struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"userId"`
	Platform     string     `json:"platform"`
	ServiceLevel string     `json:"serviceLevel"`
	APIKey       string     `json:"apiKey,omitempty"`
	Secret       string     `json:"secret,omitempty"`
	AccessToken  string     `json:"accessToken,omitempty"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	Expiration   *time.Time `json:"expiration,omitempty"`
	State        string     `json:"state,omitempty"`
	Scope        string     `json:"scope,omitempty"`
	Status       string     `json:"status"`
	Nickname     string     `json:"nickname,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
