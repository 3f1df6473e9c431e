package user

import "time"

type WatchlistItem struct {
	Symbol string `json:"symbol"`
	Market string `json:"market"`
}

type User struct {
	ID                  int64           `gorm:"primaryKey"`
	Username            string          `gorm:"column:username;uniqueIndex;not null"`
	FirstName           string          `gorm:"column:first_name;not null"`
	LastName            string          `gorm:"column:last_name;not null"`
	Email               string          `gorm:"column:email;uniqueIndex;not null"`
	Company             string          `gorm:"column:company"`
	PasswordHash        string          `gorm:"column:password_hash;not null"`
	Role                string          `gorm:"column:role;not null"`
	IsActive            bool            `gorm:"column:is_active;not null"`
	ImgPath             string          `gorm:"column:img_path"`
	RefreshTokenHash    *string         `gorm:"column:refresh_token_hash"`
	ResetToken          *string         `gorm:"column:reset_token;index"`
	ResetTokenExpiresAt *time.Time      `gorm:"column:reset_token_expires_at"`
	Watchlist           []WatchlistItem `gorm:"column:watchlist;serializer:json;type:text"`
	CreatedAt           time.Time       `gorm:"column:created_at"`
	UpdatedAt           time.Time       `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (Permission) TableName() string {
	return "permissions"
}

type UserPermission struct {
	UserID       int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	PermissionID int64     `gorm:"column:permission_id;primaryKey;autoIncrement:false"`
	GrantedBy    *int64    `gorm:"column:granted_by"`
	GrantedAt    time.Time `gorm:"column:granted_at;autoCreateTime"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
