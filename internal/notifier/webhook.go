package notifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionKind is the closed set of operator actions the channel accepts
// (spec §6).
type ActionKind string

const (
	ActionApprove           ActionKind = "approve"
	ActionReject            ActionKind = "reject"
	ActionRevise            ActionKind = "revise"
	ActionCancelOrder       ActionKind = "cancel_order"
	ActionRestartOrder      ActionKind = "restart_order"
	ActionRequestNewSchedule ActionKind = "request_new_schedule"
)

// Action is a parsed operator instruction, ready for the Orchestrator.
type Action struct {
	Kind         ActionKind
	ProposalID   string
	SalesOrderID string
	POID         string
	Text         string // free text for Revise / RequestNewSchedule
}

// update mirrors the subset of a Telegram Update payload the webhook
// endpoint cares about: a button press (CallbackQuery) or a typed
// command (Message).
type update struct {
	Message *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
	CallbackQuery *struct {
		Data string `json:"data"`
	} `json:"callback_query"`
}

// ParseUpdate decodes a Telegram webhook body into an Action. Callback
// data is colon-separated: "<kind>" or "<kind>:<id>" or
// "<kind>:<so_id>:<po_id>". A plain text "/schedule" message becomes a
// request_new_schedule command and "/revise <text>" becomes a revise.
func ParseUpdate(body []byte) (*Action, error) {
	var u update
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode telegram update: %w", err)
	}

	if u.CallbackQuery != nil {
		return parseCallbackData(u.CallbackQuery.Data)
	}

	if u.Message != nil {
		return parseCommand(u.Message.Text)
	}

	return nil, fmt.Errorf("update carries neither a callback_query nor a message")
}

func parseCallbackData(data string) (*Action, error) {
	parts := strings.Split(data, ":")
	switch ActionKind(parts[0]) {
	case ActionApprove, ActionReject:
		if len(parts) < 2 {
			return nil, fmt.Errorf("callback %q missing proposal id", data)
		}
		return &Action{Kind: ActionKind(parts[0]), ProposalID: parts[1]}, nil
	case ActionRevise:
		if len(parts) < 2 {
			return nil, fmt.Errorf("callback %q missing proposal id", data)
		}
		return &Action{Kind: ActionRevise, ProposalID: parts[1]}, nil
	case ActionCancelOrder, ActionRestartOrder:
		if len(parts) < 3 {
			return nil, fmt.Errorf("callback %q missing so/po ids", data)
		}
		return &Action{Kind: ActionKind(parts[0]), SalesOrderID: parts[1], POID: parts[2]}, nil
	default:
		return nil, fmt.Errorf("unrecognised callback action %q", data)
	}
}

func parseCommand(text string) (*Action, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "/schedule":
		return &Action{Kind: ActionRequestNewSchedule}, nil
	case strings.HasPrefix(text, "/schedule "):
		return &Action{Kind: ActionRequestNewSchedule, Text: strings.TrimPrefix(text, "/schedule ")}, nil
	case strings.HasPrefix(text, "/revise "):
		return &Action{Kind: ActionRevise, Text: strings.TrimPrefix(text, "/revise ")}, nil
	default:
		return nil, fmt.Errorf("unrecognised operator command %q", text)
	}
}
