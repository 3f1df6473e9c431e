package permission

import (
	"time"

	userDatamodel "github.com/alphawing/brokerage/internal/core/datamodel/user"
)

type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Grant links a user to a permission.
type Grant struct {
	UserID       int64     `json:"userId"`
	PermissionID int64     `json:"permissionId"`
	Name         string    `json:"name"`
	GrantedBy    *int64    `json:"grantedBy,omitempty"`
	GrantedAt    time.Time `json:"grantedAt"`
}

func FromDataModel(p *userDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}
