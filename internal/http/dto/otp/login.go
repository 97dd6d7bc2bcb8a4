package otp

// LoginRequest is the primary username/password+OTP path, where the
// password field carries the OTP (or PIN+OTP) checked by the validation
// server.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the verified, mapped identity attributes.
type LoginResponse struct {
	Attributes map[string][]string `json:"attributes"`
}
