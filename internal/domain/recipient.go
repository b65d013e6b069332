package domain

// Recipient is a saved transfer recipient as returned by the upstream
// payment gateway.
type Recipient struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Holder string `json:"holder,omitempty"`
	Masked string `json:"masked,omitempty"`
	PAN    string `json:"pan,omitempty"`
}

// DisplayName prefers the explicit name and falls back to the card holder.
func (r Recipient) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	if r.Holder != "" {
		return r.Holder
	}
	return "Unknown"
}

// RecipientSummary is the minimal shape shown to the user when choosing a
// recipient. The full account number never leaves the backend.
type RecipientSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Masked   string `json:"masked"`
	PANLast4 string `json:"pan_last4,omitempty"`
}

// Summarize maps a recipient to its public display shape.
func (r Recipient) Summarize() RecipientSummary {
	s := RecipientSummary{
		ID:     r.ID,
		Name:   r.DisplayName(),
		Masked: r.Masked,
	}
	if s.Masked == "" {
		s.Masked = "****"
	}
	if n := len(r.PAN); n >= 4 {
		s.PANLast4 = r.PAN[n-4:]
	}
	return s
}

// Card is a funding card belonging to the user.
type Card struct {
	ID         string `json:"id"`
	Holder     string `json:"holder"`
	Masked     string `json:"masked"`
	Balance    int64  `json:"balance"`
	Processing string `json:"processing,omitempty"`
	Main       bool   `json:"main"`
	Currency   string `json:"currency"`
	Bank       string `json:"bank"`
}
