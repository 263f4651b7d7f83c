package inbound

import (
	"github.com/dwapor/storefront/internal/pkg/router"
	"github.com/dwapor/storefront/internal/verification/usecase"
)

const headerIdempotencyKey = "Idempotency-Key"

// HTTPEndpoint exposes the verification code lifecycle over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// RequestCode issues a code for a pending credential and dispatches it.
// @Summary Request verification code
// @Description Stores the pending password and sends a one-time code. A retried request with the same Idempotency-Key replays the first answer.
// @Tags Verification
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client supplied retry key"
// @Param request body RequestCodeRequest true "Request code payload"
// @Success 200 {object} router.successResponse{data=RequestCodeResponse} "Code issued"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Account already verified"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Resend cooldown"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/verification/request-code [post]
func (h *HTTPEndpoint) RequestCode(r *router.Request) (any, error) {
	var req RequestCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestCode(r.Context(), usecase.RequestCodeInput{
		Username:       req.Username,
		Password:       req.Password,
		Purpose:        req.Purpose,
		Email:          req.Email,
		IdempotencyKey: r.GetHeader(headerIdempotencyKey),
	})
	if err != nil {
		return nil, err
	}

	return RequestCodeResponse{
		ResendAfterSeconds: int64(resp.ResendAfter.Seconds()),
		ExpiresInSeconds:   int64(resp.ExpiresIn.Seconds()),
	}, nil
}

// VerifyCode checks a code and promotes the pending credential.
// @Summary Verify code
// @Description Consumes the active code for the username and stores the pending password as the account credential.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body VerifyCodeRequest true "Verify code payload"
// @Success 200 {object} router.successResponse{data=VerifyCodeResponse} "Verified"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Code mismatch"
// @Failure 404 {object} router.errorResponse "No active code"
// @Failure 410 {object} router.errorResponse "Code expired"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/verification/verify-code [post]
func (h *HTTPEndpoint) VerifyCode(r *router.Request) (any, error) {
	var req VerifyCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{
		Username: req.Username,
		Code:     req.Code,
		Purpose:  req.Purpose,
	}); err != nil {
		return nil, err
	}

	return VerifyCodeResponse{Verified: true}, nil
}
