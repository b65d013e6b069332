package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/muzaffarq/paygent/internal/llm"
	"github.com/muzaffarq/paygent/internal/logging"
)

// maxToolIterations limits how many tool call rounds one message can take.
const maxToolIterations = 5

// RunnerConfig configures the agent runner.
type RunnerConfig struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	ExtraPrompt string
}

// RunInput is one user message plus the client-supplied conversation
// history. The backend keeps no conversation state; only the session's
// credentials are stored server-side.
type RunInput struct {
	SessionID string
	Query     string
	History   []llm.Message
}

// RunResult is the outcome of processing a message.
type RunResult struct {
	Response  string        `json:"response"`
	SessionID string        `json:"session_id"`
	Model     string        `json:"model,omitempty"`
	Usage     llm.Usage     `json:"usage"`
	Duration  time.Duration `json:"duration"`
}

// Runner is the agent loop: prompt, complete, execute tools, repeat.
type Runner struct {
	cfg    RunnerConfig
	client llm.Client
	tools  *ToolRegistry
	log    *logging.Logger
}

// NewRunner creates an agent runner.
func NewRunner(cfg RunnerConfig, client llm.Client, tools *ToolRegistry, log *logging.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		client: client,
		tools:  tools,
		log:    log.Sub("agent"),
	}
}

// Run processes one inbound message and returns the agent's response.
func (r *Runner) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	start := time.Now()

	r.log.Info().
		Str("session_id", in.SessionID).
		Int("history_len", len(in.History)).
		Msg("processing message")

	system := BuildSystemPrompt(PromptConfig{
		SessionID:   in.SessionID,
		Tools:       r.tools.Definitions(),
		ExtraPrompt: r.cfg.ExtraPrompt,
	})

	messages := append(append([]llm.Message{}, in.History...), llm.Message{
		Role:    llm.RoleUser,
		Content: in.Query,
	})

	var finalResp *llm.CompletionResponse
	for i := 0; i < maxToolIterations; i++ {
		resp, err := r.client.Complete(ctx, llm.CompletionRequest{
			Model:       r.cfg.Model,
			System:      system,
			Messages:    messages,
			MaxTokens:   r.cfg.MaxTokens,
			Temperature: r.cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM completion: %w", err)
		}
		finalResp = resp

		calls := parseToolCalls(resp.Content)
		if len(calls) == 0 {
			break
		}
		r.log.Info().Int("tool_calls", len(calls)).Msg("executing tool calls")

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
		results := r.executeToolCalls(ctx, in.SessionID, calls)
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: formatToolResults(results)})
	}

	if finalResp == nil {
		return nil, fmt.Errorf("no response from LLM")
	}
	response := stripToolCalls(finalResp.Content)

	r.log.Info().
		Str("session_id", in.SessionID).
		Str("model", finalResp.Model).
		Int("input_tokens", finalResp.Usage.InputTokens).
		Int("output_tokens", finalResp.Usage.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("response generated")

	return &RunResult{
		Response:  response,
		SessionID: in.SessionID,
		Model:     finalResp.Model,
		Usage:     finalResp.Usage,
		Duration:  time.Since(start),
	}, nil
}

// toolCall is a parsed tool invocation from the LLM response.
type toolCall struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
}

// toolResult holds the output from executing a tool.
type toolResult struct {
	Tool   string
	Output string
	Err    error
}

// toolCallRe matches ```tool_call\n{...}\n``` blocks in LLM output.
var toolCallRe = regexp.MustCompile("(?s)```tool_call\\s*\n(\\{.*?\\})\n\\s*```")

// blankLineCollapseRe collapses 3+ consecutive newlines to a single blank line.
var blankLineCollapseRe = regexp.MustCompile(`\n{3,}`)

// parseToolCalls extracts tool_call blocks from LLM response text.
func parseToolCalls(text string) []toolCall {
	matches := toolCallRe.FindAllStringSubmatch(text, -1)
	var calls []toolCall
	for _, match := range matches {
		if len(match) < 2 {
			continue
		}
		var tc toolCall
		if err := json.Unmarshal([]byte(match[1]), &tc); err != nil {
			continue
		}
		if tc.Tool != "" {
			calls = append(calls, tc)
		}
	}
	return calls
}

// executeToolCalls runs each tool with the session id forced into its
// input, so the model cannot direct a tool at another session.
func (r *Runner) executeToolCalls(ctx context.Context, sessionID string, calls []toolCall) []toolResult {
	var results []toolResult
	for _, tc := range calls {
		tool, ok := r.tools.Get(tc.Tool)
		if !ok {
			results = append(results, toolResult{
				Tool: tc.Tool,
				Err:  fmt.Errorf("unknown tool: %s", tc.Tool),
			})
			continue
		}

		input, err := injectSessionID(tc.Input, sessionID)
		if err != nil {
			results = append(results, toolResult{Tool: tc.Tool, Err: err})
			continue
		}

		r.log.Debug().Str("tool", tc.Tool).Msg("executing tool")
		output, err := tool.Execute(ctx, input)
		results = append(results, toolResult{Tool: tc.Tool, Output: output, Err: err})
	}
	return results
}

// injectSessionID overwrites any session_id in the tool input with the
// authenticated one.
func injectSessionID(raw json.RawMessage, sessionID string) (string, error) {
	input := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &input); err != nil {
			return "", fmt.Errorf("invalid tool input: %w", err)
		}
	}
	input["session_id"] = sessionID
	out, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// formatToolResults renders tool execution results for the LLM.
func formatToolResults(results []toolResult) string {
	var b strings.Builder
	b.WriteString("Tool execution results:\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "### %s\n", r.Tool)
		if r.Err != nil {
			fmt.Fprintf(&b, "Error: %s\n", r.Err)
		} else {
			b.WriteString(r.Output)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// stripToolCalls removes tool_call blocks from the final response so they
// never reach the user.
func stripToolCalls(text string) string {
	cleaned := toolCallRe.ReplaceAllString(text, "\n\n")
	cleaned = blankLineCollapseRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
