package dto

type LoginInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type LoginResult struct {
	Token       string `json:"token"`
	IsNewDevice bool   `json:"is_new_device"`
}

type RevokeDeviceInput struct {
	DeviceID string `json:"device_id" validate:"required"`
}
