package permission

type CreatePermissionDTO struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=255"`
}

type UpdatePermissionDTO struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

type GrantDTO struct {
	UserID       int64 `json:"userId" validate:"required,gt=0"`
	PermissionID int64 `json:"permissionId" validate:"required,gt=0"`
}
