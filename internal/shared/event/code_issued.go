package event

import "time"

const CodeIssuedDestination string = "verification.code_issued"
const CodeIssuedConsumerNotification string = "verification_code_issued_notification"

// CodeIssuedMessage carries a freshly issued verification code to the delivery consumer.
type CodeIssuedMessage struct {
	EventID   int64     `json:"event_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Purpose   string    `json:"purpose"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}
