package packets

// body for student self-registration
type RegisterRequest struct {
	Name          string  `json:"name" binding:"required"`
	Email         string  `json:"email" binding:"required,email"`
	Password      string  `json:"password" binding:"required"`
	StudentNumber string  `json:"student_number" binding:"required"`
	Major         *string `json:"major"`
}

// body for logging in; kind narrows the lookup to one account kind
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Kind     string `json:"kind" binding:"omitempty,oneof=admin driver student"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// fields that do not apply to the caller's kind are ignored
type UpdateCurrentProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password"`
	Phone    *string `json:"phone"`
	Major    *string `json:"major"`
}
