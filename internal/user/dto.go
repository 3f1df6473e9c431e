package user

// UpdateProfileDTO carries a partial update; nil fields are left untouched.
type UpdateProfileDTO struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=50"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Company   *string `json:"company" validate:"omitempty,max=255"`
	ImgPath   *string `json:"imgPath" validate:"omitempty,max=512"`
	Password  *string `json:"password" validate:"omitempty,min=6"`
}

type ListFilter struct {
	Username string
	Role     string
}
