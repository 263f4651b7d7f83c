package inbound

type RequestCodeRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Purpose  string `json:"purpose"`
	Email    string `json:"email"`
}

type RequestCodeResponse struct {
	ResendAfterSeconds int64 `json:"resend_after_seconds"`
	ExpiresInSeconds   int64 `json:"expires_in_seconds"`
}

func (RequestCodeResponse) Message() string {
	return "If the details are valid, a verification code has been sent."
}

type VerifyCodeRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
	Purpose  string `json:"purpose"`
}

type VerifyCodeResponse struct {
	Verified bool `json:"verified"`
}

func (VerifyCodeResponse) Message() string {
	return "Verification successful."
}
