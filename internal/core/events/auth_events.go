package events

const (
	EventTypePasswordResetRequested = "auth.password_reset_requested"
	EventTypeUserRegistered         = "auth.user_registered"
)

// PasswordResetRequestedEvent carries the link the mailer sends. The link is
// kept out of Data so it never shows up in event logs.
type PasswordResetRequestedEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	ResetLink string `json:"reset_link"`
}

func NewPasswordResetRequestedEvent(userID int64, email, resetLink string) *PasswordResetRequestedEvent {
	return &PasswordResetRequestedEvent{
		BaseEvent: newBase(EventTypePasswordResetRequested, map[string]any{
			"user_id": userID,
			"email":   email,
		}),
		UserID:    userID,
		Email:     email,
		ResetLink: resetLink,
	}
}

type UserRegisteredEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func NewUserRegisteredEvent(userID int64, username, role string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: newBase(EventTypeUserRegistered, map[string]any{
			"user_id":  userID,
			"username": username,
			"role":     role,
		}),
		UserID:   userID,
		Username: username,
		Role:     role,
	}
}
