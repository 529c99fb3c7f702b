package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arota-dev/pipeflow/internal/model"
)

// HTTPAgentInvoker is the CLI's default ports.AgentInvoker: it posts flow
// invocations to an external agent service speaking a small JSON protocol
// (agent id, flow name, model override, variable bindings in, text/token
// counts out). No pack example wires a third-party HTTP client against an
// agent-style API, so this adapter is built on net/http rather than a
// library client; see DESIGN.md.
type HTTPAgentInvoker struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPAgentInvoker returns an invoker that POSTs to baseURL+"/flows/run".
// apiKey, if non-empty, is sent as a bearer token.
func NewHTTPAgentInvoker(baseURL, apiKey string) *HTTPAgentInvoker {
	return &HTTPAgentInvoker{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type runFlowRequest struct {
	AgentID       string         `json:"agent_id"`
	Flow          string         `json:"flow"`
	ModelOverride string         `json:"model_override,omitempty"`
	Variables     map[string]any `json:"variables"`
}

type runFlowResponse struct {
	Text string `json:"text"`
	Tokens struct {
		In    int `json:"in"`
		Out   int `json:"out"`
		Total int `json:"total"`
	} `json:"tokens"`
	Parser *struct {
		SuccessCount    int     `json:"success_count"`
		FailureCount    int     `json:"failure_count"`
		TotalRetryCount int     `json:"total_retry_count"`
		SuccessRate     float64 `json:"success_rate"`
		AverageRetries  float64 `json:"average_retries"`
	} `json:"parser,omitempty"`
	Error string `json:"error,omitempty"`
}

func (h *HTTPAgentInvoker) RunFlow(ctx context.Context, flowName string, vars map[string]model.Value, agentID, modelOverride string) (string, model.TokenCounts, *model.ParserStats, error) {
	rawVars := make(map[string]any, len(vars))
	for k, v := range vars {
		rawVars[k] = v.ToAny()
	}
	reqBody, err := json.Marshal(runFlowRequest{
		AgentID:       agentID,
		Flow:          flowName,
		ModelOverride: modelOverride,
		Variables:     rawVars,
	})
	if err != nil {
		return "", model.TokenCounts{}, nil, fmt.Errorf("marshalling flow request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/flows/run", bytes.NewReader(reqBody))
	if err != nil {
		return "", model.TokenCounts{}, nil, fmt.Errorf("building flow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", model.TokenCounts{}, nil, fmt.Errorf("calling agent flow %q: %w", flowName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", model.TokenCounts{}, nil, fmt.Errorf("reading agent response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", model.TokenCounts{}, nil, fmt.Errorf("agent flow %q returned %d: %s", flowName, resp.StatusCode, string(body))
	}

	var parsed runFlowResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", model.TokenCounts{}, nil, fmt.Errorf("parsing agent response: %w", err)
	}
	if parsed.Error != "" {
		return "", model.TokenCounts{}, nil, fmt.Errorf("agent flow %q failed: %s", flowName, parsed.Error)
	}

	tokens := model.TokenCounts{In: parsed.Tokens.In, Out: parsed.Tokens.Out, Total: parsed.Tokens.Total}
	var stats *model.ParserStats
	if parsed.Parser != nil {
		stats = &model.ParserStats{
			SuccessCount:    parsed.Parser.SuccessCount,
			FailureCount:    parsed.Parser.FailureCount,
			TotalRetryCount: parsed.Parser.TotalRetryCount,
			SuccessRate:     parsed.Parser.SuccessRate,
			AverageRetries:  parsed.Parser.AverageRetries,
		}
	}
	return parsed.Text, tokens, stats, nil
}
