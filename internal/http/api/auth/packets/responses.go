package packets

import (
	"time"

	"github.com/aau-transit/bustrack/internal/model"
)

// returned for profile endpoints and embedded in token responses
type AccountResponse struct {
	ID            string  `json:"id"`
	Kind          string  `json:"kind"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	BusNumber     *int    `json:"bus_number,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	AdminID       *string `json:"admin_id,omitempty"`
	StudentNumber *string `json:"student_number,omitempty"`
	Major         *string `json:"major,omitempty"`
	IsActive      bool    `json:"is_active"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func NewAccountResponse(a *model.Account) AccountResponse {
	out := AccountResponse{
		ID:            a.ID.String(),
		Kind:          string(a.Kind),
		Name:          a.Name,
		Email:         a.Email,
		BusNumber:     a.BusNumber,
		Phone:         a.Phone,
		StudentNumber: a.StudentNumber,
		Major:         a.Major,
		IsActive:      a.IsActive,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.Format(time.RFC3339),
	}
	if a.AdminID != nil {
		id := a.AdminID.String()
		out.AdminID = &id
	}
	return out
}

type TokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int64            `json:"expires_in"`
	Account      *AccountResponse `json:"account,omitempty"`
}
