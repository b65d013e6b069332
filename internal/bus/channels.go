package bus

// Channel names are pure functions from id to string so every component
// derives the same name without shared state.

// BroadcastChannel carries UI-visible workflow events.
func BroadcastChannel() string { return "events:stream" }

// SelectChannel carries the reply for one selection correlation id.
func SelectChannel(correlationID string) string { return "select:" + correlationID }

// OTPChannel carries the one-time code for one in-flight payment.
func OTPChannel(paymentID string) string { return "otp:" + paymentID }
