package apicredential

import "time"

type AddCredentialDTO struct {
	UserID       int64      `json:"userId"`
	Platform     string     `json:"platform" validate:"required,broker"`
	ServiceLevel string     `json:"serviceLevel" validate:"omitempty,account_type"`
	APIKey       string     `json:"apiKey" validate:"max=1024"`
	Secret       string     `json:"secret" validate:"max=1024"`
	AccessToken  string     `json:"accessToken" validate:"max=4096"`
	RefreshToken string     `json:"refreshToken" validate:"max=4096"`
	Expiration   *time.Time `json:"expiration"`
	State        string     `json:"state" validate:"max=255"`
	Scope        string     `json:"scope" validate:"max=1024"`
	Status       string     `json:"status" validate:"omitempty,credential_status"`
	Nickname     string     `json:"nickname" validate:"max=255"`
}

type UpdateCredentialDTO struct {
	Platform     *string    `json:"platform" validate:"omitempty,broker"`
	ServiceLevel *string    `json:"serviceLevel" validate:"omitempty,account_type"`
	APIKey       *string    `json:"apiKey" validate:"omitempty,max=1024"`
	Secret       *string    `json:"secret" validate:"omitempty,max=1024"`
	AccessToken  *string    `json:"accessToken" validate:"omitempty,max=4096"`
	RefreshToken *string    `json:"refreshToken" validate:"omitempty,max=4096"`
	Expiration   *time.Time `json:"expiration"`
	State        *string    `json:"state" validate:"omitempty,max=255"`
	Scope        *string    `json:"scope" validate:"omitempty,max=1024"`
	Status       *string    `json:"status" validate:"omitempty,credential_status"`
	Nickname     *string    `json:"nickname" validate:"omitempty,max=255"`
}

type ListFilter struct {
	UserID   int64
	Platform string
	Nickname string
}
