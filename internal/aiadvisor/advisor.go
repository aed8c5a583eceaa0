// Package aiadvisor is the optional, advisory-only AI Advisor boundary
// (spec §6/§9). It never writes anything; it returns a suggested
// reordering and priority updates that the deterministic kernel is free
// to ignore. Callers must fall back to pure EDF on any AIError.
package aiadvisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
)

// Hint is the AI Advisor's suggestion: a permutation of sales order ids,
// zero or more priority updates, and a human-readable explanation.
type Hint struct {
	OrderedSalesOrderIDs []string       `json:"ordered_sales_order_ids"`
	PriorityUpdates      map[string]int `json:"priority_updates"`
	Explanation          string         `json:"explanation"`
}

// Request carries everything the AI Advisor needs to reason about a
// revise request.
type Request struct {
	OperatorText    string               `json:"operator_text"`
	CurrentSchedule domain.Schedule      `json:"current_schedule"`
	PendingOrders   []domain.SalesOrder `json:"pending_orders"`
	EDFBaseline     []string             `json:"edf_baseline_order_ids"`
}

// Advisor calls an OpenAI-compatible chat-completions endpoint, asking
// for a structured JSON response shaped like Hint.
type Advisor struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func New(baseURL, apiKey, model string, timeout time.Duration) *Advisor {
	return &Advisor{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

const systemPrompt = `You are a scheduling advisor for a single production line.
You are given the current EDF baseline ordering, the pending sales orders, and
operator free text. Respond ONLY with JSON matching the requested schema: a
permutation of the given sales order ids, optional priority updates, and a
short explanation. You do not have final say; a deterministic scheduler will
validate and may override your suggestion.`

// Advise asks the model for a Hint. Any failure (timeout, malformed
// response, non-2xx status) is wrapped in a domain.AIError so callers
// can uniformly fall back to pure EDF.
func (a *Advisor) Advise(ctx context.Context, req Request) (*Hint, error) {
	userPayload, err := json.Marshal(req)
	if err != nil {
		return nil, &domain.AIError{Op: "marshal_request", Err: err}
	}

	body := map[string]interface{}{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": string(userPayload)},
		},
		"response_format": map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   "scheduling_hint",
				"strict": true,
				"schema": hintSchema,
			},
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, &domain.AIError{Op: "marshal_body", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &domain.AIError{Op: "build_request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.AIError{Op: "do_request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.AIError{Op: "do_request", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, &domain.AIError{Op: "decode_response", Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &domain.AIError{Op: "decode_response", Err: fmt.Errorf("no choices returned")}
	}

	var hint Hint
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &hint); err != nil {
		return nil, &domain.AIError{Op: "decode_hint", Err: err}
	}
	return &hint, nil
}

var hintSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"ordered_sales_order_ids": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"priority_updates": map[string]interface{}{
			"type": "object",
		},
		"explanation": map[string]interface{}{
			"type": "string",
		},
	},
	"required": []string{"ordered_sales_order_ids", "priority_updates", "explanation"},
}
