package handler

type profileResponse struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	MFAEnabled  bool   `json:"mfa_enabled"`
	PhoneNumber string `json:"phone_number"`
}

type mfaResponse struct {
	MFAEnabled bool `json:"mfa_enabled"`
}

type updatePhoneRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type phoneResponse struct {
	PhoneNumber string `json:"phone_number"`
}
