package user

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	DisplayName string  `json:"display_name" validate:"required,min=1,max=100"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone,omitempty"`
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone       *string `json:"phone,omitempty"`
}

// ProfileResponse is the directory profile exposed to other services
type ProfileResponse struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// ToResponse converts a User model to a ProfileResponse DTO
func (u *User) ToResponse() *ProfileResponse {
	return &ProfileResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Phone:       u.Phone,
		CreatedAt:   u.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
