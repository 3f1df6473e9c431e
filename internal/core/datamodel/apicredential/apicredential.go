package apicredential

import "time"

// Credential holds a broker API connection. The key, secret and token columns
// are ciphertexts.
type Credential struct {
	ID           int64      `gorm:"primaryKey"`
	UserID       int64      `gorm:"column:user_id;not null;index"`
	Platform     string     `gorm:"column:platform;not null"`
	ServiceLevel string     `gorm:"column:service_level;not null"`
	APIKey       string     `gorm:"column:api_key"`
	Secret       string     `gorm:"column:secret"`
	AccessToken  string     `gorm:"column:access_token"`
	RefreshToken string     `gorm:"column:refresh_token"`
	Expiration   *time.Time `gorm:"column:expiration"`
	State        string     `gorm:"column:state"`
	Scope        string     `gorm:"column:scope"`
	Status       string     `gorm:"column:status;not null"`
	Nickname     string     `gorm:"column:nickname"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (Credential) TableName() string {
	return "api_credentials"
}
