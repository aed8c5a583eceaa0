// Package notifier implements the operator channel boundary (spec §6):
// a Telegram bot that pushes schedule proposals and factory-failure
// alerts with action buttons, and parses the operator's button presses
// back into a closed action set.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// Client is a minimal Telegram Bot API client scoped to what the
// operator channel needs: text+image messages with inline keyboards,
// and reading back callback-query updates.
type Client struct {
	apiBase    string
	botToken   string
	defaultTo  string
	httpClient *http.Client
}

func NewClient(botToken, defaultChatID string) *Client {
	return &Client{
		apiBase:    defaultAPIBase,
		botToken:   botToken,
		defaultTo:  defaultChatID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// newClientWithBase is used by tests to point the client at an
// httptest server instead of the real Telegram API.
func newClientWithBase(base, botToken, defaultChatID string, httpClient *http.Client) *Client {
	return &Client{apiBase: base, botToken: botToken, defaultTo: defaultChatID, httpClient: httpClient}
}

// InlineButton is one operator-facing action button.
type InlineButton struct {
	Label        string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

// SendMessage pushes a plain text message with an optional row of
// action buttons.
func (c *Client) SendMessage(ctx context.Context, text string, buttons ...InlineButton) error {
	body := map[string]interface{}{
		"chat_id":    c.defaultTo,
		"text":       text,
		"parse_mode": "Markdown",
	}
	if len(buttons) > 0 {
		body["reply_markup"] = inlineKeyboardMarkup{InlineKeyboard: [][]InlineButton{buttons}}
	}
	var resp telegramResponse
	return c.doJSON(ctx, "sendMessage", body, &resp)
}

// SendPhoto pushes an image (e.g. the rendered Gantt timeline) with a
// caption and an optional row of action buttons.
func (c *Client) SendPhoto(ctx context.Context, image []byte, filename, caption string, buttons ...InlineButton) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("chat_id", c.defaultTo); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption field: %w", err)
		}
	}
	if len(buttons) > 0 {
		markup, err := json.Marshal(inlineKeyboardMarkup{InlineKeyboard: [][]InlineButton{buttons}})
		if err != nil {
			return fmt.Errorf("marshal reply markup: %w", err)
		}
		if err := writer.WriteField("reply_markup", string(markup)); err != nil {
			return fmt.Errorf("write reply_markup field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		return fmt.Errorf("create photo part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("write photo bytes: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", c.apiBase, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("create sendPhoto request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send photo request failed: %w", err)
	}
	defer resp.Body.Close()

	var result telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode sendPhoto response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram sendPhoto error: %s", result.Description)
	}
	return nil
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

func (c *Client) doJSON(ctx context.Context, method string, body interface{}, result *telegramResponse) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !result.OK {
		return fmt.Errorf("telegram %s error: %s", method, result.Description)
	}
	return nil
}
