package domain

// RequestKind classifies an outstanding ask for human input.
type RequestKind string

const (
	KindRecipientChoice RequestKind = "RECIPIENT_CHOICES"
	KindCardChoice      RequestKind = "CARD_CHOICES"
	KindOTP             RequestKind = "CODE_REQUIRED"
)

// ChoiceEvent is broadcast when the workflow needs the user to pick from a
// list. The UI renders it and replies on the per-correlation channel.
type ChoiceEvent struct {
	Type          RequestKind `json:"type"`
	CorrelationID string      `json:"correlation_id"`
	List          any         `json:"list"`
	Amount        float64     `json:"amount"`
}

// CodeRequiredEvent is broadcast when a one-time code is needed to finalize
// a payment. Replies travel on the per-payment OTP channel.
type CodeRequiredEvent struct {
	Type      RequestKind `json:"type"`
	PaymentID string      `json:"payment_id"`
	ExpiresIn int         `json:"expires_in"`
}

// SelectionReply is the payload the UI publishes on a selection channel.
// Exactly one of the two ids is expected to be set.
type SelectionReply struct {
	RecipientID string `json:"recipient_id,omitempty"`
	CardID      string `json:"card_id,omitempty"`
}

// OTPReply is the payload the UI publishes on an OTP channel.
type OTPReply struct {
	Code string `json:"code"`
}
