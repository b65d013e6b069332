package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/muzaffarq/paygent/internal/domain"
	"github.com/muzaffarq/paygent/internal/transfer"
)

// TransferRunner executes one transfer attempt end to end.
type TransferRunner interface {
	Run(ctx context.Context, req transfer.Request) transfer.Outcome
}

// CredentialSource resolves a session's stored credentials.
type CredentialSource interface {
	Get(ctx context.Context, sessionID string) (domain.Credentials, bool, error)
}

// RecipientLister is the read-only slice of the gateway client the listing
// tools need.
type RecipientLister interface {
	ListRecipients(ctx context.Context, token string) ([]domain.Recipient, error)
	ListCards(ctx context.Context, token, userID string) ([]domain.Card, error)
}

// QuestionAnswerer answers a free-text product question.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string) (json.RawMessage, error)
}

var errNoSession = errors.New("no credentials stored for session")

// MakeTransferTool drives the full confirmation workflow.
type MakeTransferTool struct {
	runner TransferRunner
}

func NewMakeTransferTool(runner TransferRunner) *MakeTransferTool {
	return &MakeTransferTool{runner: runner}
}

func (t *MakeTransferTool) Name() string { return "make_transfer" }

func (t *MakeTransferTool) Description() string {
	return "Send money to a saved recipient. Narrows the recipient by name, asks the user " +
		"to confirm the recipient and funding card, then completes the payment with their " +
		"one-time code. Blocks until the transfer reaches a terminal state."
}

func (t *MakeTransferTool) InputSchema() string {
	return `{"type":"object","properties":{` +
		`"recipient_name":{"type":"string","description":"Name of the person to pay"},` +
		`"amount":{"type":"number","description":"Amount in UZS"},` +
		`"session_id":{"type":"string"}},` +
		`"required":["recipient_name","amount","session_id"]}`
}

func (t *MakeTransferTool) Execute(ctx context.Context, input string) (string, error) {
	var in struct {
		RecipientName string  `json:"recipient_name"`
		Amount        float64 `json:"amount"`
		SessionID     string  `json:"session_id"`
	}
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if in.RecipientName == "" {
		return "", errors.New("recipient_name is required")
	}
	if in.Amount <= 0 {
		return "", errors.New("amount must be positive")
	}

	outcome := t.runner.Run(ctx, transfer.Request{
		SessionID:     in.SessionID,
		RecipientName: in.RecipientName,
		Amount:        in.Amount,
	})
	out, err := json.Marshal(outcome)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ListRecipientsTool returns the user's saved recipients in display form.
type ListRecipientsTool struct {
	creds CredentialSource
	api   RecipientLister
}

func NewListRecipientsTool(creds CredentialSource, api RecipientLister) *ListRecipientsTool {
	return &ListRecipientsTool{creds: creds, api: api}
}

func (t *ListRecipientsTool) Name() string { return "list_recipients" }

func (t *ListRecipientsTool) Description() string {
	return "List the user's saved transfer recipients."
}

func (t *ListRecipientsTool) InputSchema() string {
	return `{"type":"object","properties":{"session_id":{"type":"string"}},"required":["session_id"]}`
}

func (t *ListRecipientsTool) Execute(ctx context.Context, input string) (string, error) {
	creds, err := resolveCreds(ctx, t.creds, input)
	if err != nil {
		return "", err
	}
	recipients, err := t.api.ListRecipients(ctx, creds.Token)
	if err != nil {
		return "", err
	}
	summaries := make([]domain.RecipientSummary, len(recipients))
	for i, r := range recipients {
		summaries[i] = r.Summarize()
	}
	out, err := json.Marshal(summaries)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ListCardsTool returns the user's funding cards.
type ListCardsTool struct {
	creds CredentialSource
	api   RecipientLister
}

func NewListCardsTool(creds CredentialSource, api RecipientLister) *ListCardsTool {
	return &ListCardsTool{creds: creds, api: api}
}

func (t *ListCardsTool) Name() string { return "list_cards" }

func (t *ListCardsTool) Description() string {
	return "List the user's cards with balances."
}

func (t *ListCardsTool) InputSchema() string {
	return `{"type":"object","properties":{"session_id":{"type":"string"}},"required":["session_id"]}`
}

func (t *ListCardsTool) Execute(ctx context.Context, input string) (string, error) {
	creds, err := resolveCreds(ctx, t.creds, input)
	if err != nil {
		return "", err
	}
	cards, err := t.api.ListCards(ctx, creds.Token, creds.UserID)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(cards)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// AnswerFAQTool answers product questions via the retrieval service. It is
// independent of the transaction workflow and needs no credentials.
type AnswerFAQTool struct {
	faq QuestionAnswerer
}

func NewAnswerFAQTool(faq QuestionAnswerer) *AnswerFAQTool {
	return &AnswerFAQTool{faq: faq}
}

func (t *AnswerFAQTool) Name() string { return "answer_faq" }

func (t *AnswerFAQTool) Description() string {
	return "Answer a question about the payment service using its documentation."
}

func (t *AnswerFAQTool) InputSchema() string {
	return `{"type":"object","properties":{"question":{"type":"string"}},"required":["question"]}`
}

func (t *AnswerFAQTool) Execute(ctx context.Context, input string) (string, error) {
	var in struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if in.Question == "" {
		return "", errors.New("question is required")
	}
	answer, err := t.faq.Ask(ctx, in.Question)
	if err != nil {
		return "", err
	}
	return string(answer), nil
}

// resolveCreds parses the session id out of a tool input and looks the
// session up.
func resolveCreds(ctx context.Context, creds CredentialSource, input string) (domain.Credentials, error) {
	var in struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return domain.Credentials{}, fmt.Errorf("invalid input: %w", err)
	}
	c, ok, err := creds.Get(ctx, in.SessionID)
	if err != nil {
		return domain.Credentials{}, err
	}
	if !ok || !c.Valid() {
		return domain.Credentials{}, errNoSession
	}
	return c, nil
}
