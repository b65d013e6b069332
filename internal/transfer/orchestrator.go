// Package transfer drives a money transfer from a free-text recipient name
// to a finalized payment. The flow is strictly linear: resolve credentials,
// list and narrow recipients, confirm the recipient, confirm the funding
// card, prepay, collect the one-time code, pay. Every failure is returned
// as a structured outcome naming the stage that failed; nothing is retried.
package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/muzaffarq/paygent/internal/confirm"
	"github.com/muzaffarq/paygent/internal/domain"
	"github.com/muzaffarq/paygent/internal/logging"
	"github.com/muzaffarq/paygent/internal/match"
	"github.com/muzaffarq/paygent/internal/payapi"
)

// Status is the terminal state of one transfer run.
type Status string

const (
	StatusPaid         Status = "PAID"
	StatusError        Status = "ERROR"
	StatusNoRecipients Status = "NO_RECIPIENTS"
	StatusTimeout      Status = "TIMEOUT"
)

// Stage names identify which step a failure outcome belongs to.
const (
	StageCreds           = "creds"
	StageRecipientList   = "recipient_list"
	StageSelectRecipient = "select_recipient"
	StageCardList        = "card_list"
	StageSelectCard      = "select_card"
	StageLookup          = "lookup"
	StagePrepay          = "prepay"
	StageAwaitCode       = "await_code"
	StagePay             = "pay"
)

// Request is one transfer invocation.
type Request struct {
	SessionID     string
	RecipientName string
	Amount        float64
}

// Outcome is the structured result of a run. Run never returns an error;
// every failure mode maps to a status and stage here.
type Outcome struct {
	Status      Status `json:"status"`
	Stage       string `json:"stage,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
	PaymentID   string `json:"payment_id,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
	CardID      string `json:"card_id,omitempty"`
	Result      any    `json:"result,omitempty"`
}

// CredentialSource resolves a session's stored credentials.
type CredentialSource interface {
	Get(ctx context.Context, sessionID string) (domain.Credentials, bool, error)
}

// PaymentAPI is the slice of the gateway client the orchestrator needs.
type PaymentAPI interface {
	ListRecipients(ctx context.Context, token string) ([]domain.Recipient, error)
	ListCards(ctx context.Context, token, userID string) ([]domain.Card, error)
	RecipientByID(ctx context.Context, token, recipientID string) (domain.Recipient, error)
	Prepay(ctx context.Context, token string, req payapi.PrepayRequest) (payapi.PrepayResponse, error)
	Pay(ctx context.Context, token, paymentID, code string) (map[string]any, error)
}

// Waiter blocks for out-of-band human input.
type Waiter interface {
	AwaitSelection(ctx context.Context, event domain.ChoiceEvent, timeout time.Duration) (string, error)
	AwaitCode(ctx context.Context, event domain.CodeRequiredEvent, timeout time.Duration) (string, error)
}

// Options tune a single orchestrator. Zero values fall back to defaults.
type Options struct {
	MinScore         float64
	SelectionTimeout time.Duration
	OTPTimeout       time.Duration
}

// Orchestrator sequences transfer runs. Safe for concurrent use; runs share
// no state beyond the injected collaborators.
type Orchestrator struct {
	creds   CredentialSource
	api     PaymentAPI
	waiter  Waiter
	matcher *match.Matcher
	opts    Options
	log     *logging.Logger
}

// New creates an orchestrator over the given collaborators.
func New(creds CredentialSource, api PaymentAPI, waiter Waiter, m *match.Matcher, opts Options, log *logging.Logger) *Orchestrator {
	if opts.MinScore <= 0 {
		opts.MinScore = match.DefaultMinScore
	}
	if opts.SelectionTimeout <= 0 {
		opts.SelectionTimeout = confirm.DefaultTimeout
	}
	if opts.OTPTimeout <= 0 {
		opts.OTPTimeout = confirm.DefaultTimeout
	}
	return &Orchestrator{
		creds:   creds,
		api:     api,
		waiter:  waiter,
		matcher: m,
		opts:    opts,
		log:     log.Sub("transfer"),
	}
}

// Run executes one transfer attempt end to end. A timed-out or failed run
// cannot be resumed; the caller starts over with a fresh invocation.
func (o *Orchestrator) Run(ctx context.Context, req Request) Outcome {
	log := o.log.Zerolog().With().Str("session_id", req.SessionID).Logger()

	creds, ok, err := o.creds.Get(ctx, req.SessionID)
	if err != nil {
		return failure(StageCreds, err)
	}
	if !ok || !creds.Valid() {
		log.Warn().Msg("no credentials for session")
		return Outcome{Status: StatusError, Stage: StageCreds, Message: "session has no stored credentials"}
	}

	recipients, err := o.api.ListRecipients(ctx, creds.Token)
	if err != nil {
		return failure(StageRecipientList, err)
	}

	candidates := match.FilterByName(o.matcher, req.RecipientName, recipients, recipientHolder, o.opts.MinScore)
	if len(candidates) == 0 {
		log.Info().Str("query", req.RecipientName).Msg("no recipients matched")
		return Outcome{Status: StatusNoRecipients, Stage: StageRecipientList, Message: "no recipients matched the given name"}
	}

	summaries := make([]domain.RecipientSummary, len(candidates))
	for i, c := range candidates {
		summaries[i] = c.Item.Summarize()
	}

	recipientID, err := o.waiter.AwaitSelection(ctx, domain.ChoiceEvent{
		Type:          domain.KindRecipientChoice,
		CorrelationID: confirm.NewCorrelationID(),
		List:          summaries,
		Amount:        req.Amount,
	}, o.opts.SelectionTimeout)
	if err != nil {
		return waitFailure(StageSelectRecipient, err, "")
	}
	log.Debug().Str("recipient_id", recipientID).Msg("recipient selected")

	cards, err := o.api.ListCards(ctx, creds.Token, creds.UserID)
	if err != nil {
		return failure(StageCardList, err)
	}
	if len(cards) == 0 {
		return Outcome{Status: StatusError, Stage: StageCardList, Message: "no funding cards available"}
	}

	// The card choice is always put to the user, even with a single card.
	cardID, err := o.waiter.AwaitSelection(ctx, domain.ChoiceEvent{
		Type:          domain.KindCardChoice,
		CorrelationID: confirm.NewCorrelationID(),
		List:          cards,
		Amount:        req.Amount,
	}, o.opts.SelectionTimeout)
	if err != nil {
		return waitFailure(StageSelectCard, err, "")
	}
	log.Debug().Str("card_id", cardID).Msg("card selected")

	// Re-fetch the recipient server-side; the list response is not trusted
	// to carry the full account number.
	recipient, err := o.api.RecipientByID(ctx, creds.Token, recipientID)
	if err != nil {
		return failure(StageLookup, err)
	}

	prepay, err := o.api.Prepay(ctx, creds.Token, payapi.PrepayRequest{
		Amount:       req.Amount,
		RecipientID:  recipientID,
		RecipientPAN: recipient.PAN,
		SenderCardID: cardID,
	})
	if err != nil {
		return failure(StagePrepay, err)
	}
	if prepay.ID == "" {
		log.Error().Msg("prepay accepted without a payment id")
		return Outcome{Status: StatusError, Stage: StagePrepay, Message: "gateway accepted prepay but returned no payment id"}
	}
	log.Info().Str("payment_id", prepay.ID).Msg("prepaid")

	code, err := o.waiter.AwaitCode(ctx, domain.CodeRequiredEvent{
		Type:      domain.KindOTP,
		PaymentID: prepay.ID,
		ExpiresIn: int(o.opts.OTPTimeout.Seconds()),
	}, o.opts.OTPTimeout)
	if err != nil {
		return waitFailure(StageAwaitCode, err, prepay.ID)
	}

	result, err := o.api.Pay(ctx, creds.Token, prepay.ID, code)
	if err != nil {
		out := failure(StagePay, err)
		out.PaymentID = prepay.ID
		return out
	}
	log.Info().Str("payment_id", prepay.ID).Msg("paid")

	return Outcome{
		Status:      StatusPaid,
		PaymentID:   prepay.ID,
		RecipientID: recipientID,
		CardID:      cardID,
		Result:      result,
	}
}

// recipientHolder is the match target; recipients with neither a name nor
// a holder are skipped by the filter.
func recipientHolder(r domain.Recipient) string {
	if r.Name != "" {
		return r.Name
	}
	return r.Holder
}

func failure(stage string, err error) Outcome {
	return Outcome{Status: StatusError, Stage: stage, Error: err.Error()}
}

// waitFailure maps a waiter error to a timeout or error outcome, keeping
// the payment id when one is already in flight.
func waitFailure(stage string, err error, paymentID string) Outcome {
	if errors.Is(err, confirm.ErrTimeout) {
		return Outcome{Status: StatusTimeout, Stage: stage, Message: "timed out waiting for user input", PaymentID: paymentID}
	}
	out := failure(stage, err)
	out.PaymentID = paymentID
	return out
}
