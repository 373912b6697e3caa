package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config points the client at any OpenAI-compatible chat completions API.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

type Client struct {
	config Config
	http   *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) GenerateQuestion(ctx context.Context, topic string, history []string) (*Question, error) {
	system := fmt.Sprintf("You are a trivia host and an expert on: %s. "+
		"Generate one challenging but fair question. "+
		"Keep the correct answer short, a few words at most. "+
		"Respond with a JSON object containing exactly two string fields: "+
		"\"question\" and \"answer\".", topic)

	prompt := "Generate the next trivia question."
	if len(history) > 0 {
		prompt = fmt.Sprintf("Generate the next trivia question. Do not repeat any of these already-asked questions:\n- %s",
			strings.Join(history, "\n- "))
	}

	var out Question
	if err := c.complete(ctx, system, prompt, &out); err != nil {
		return nil, err
	}

	if out.Question == "" || out.Answer == "" {
		return nil, fmt.Errorf("%w: empty question or answer in response", ErrUnavailable)
	}
	return &out, nil
}

func (c *Client) JudgeAnswer(ctx context.Context, question, correctAnswer, userAnswer string) (*Judgment, error) {
	system := "You are the judge of a trivia game. " +
		"Evaluate whether the player's answer is conceptually correct; be flexible with typos and phrasing. " +
		"Provide educational feedback explaining why the answer is (or is not) correct. " +
		"Never mention the numeric score in the feedback. " +
		"Award 10 points for a correct answer and 0 for an incorrect one. " +
		"Respond with a JSON object containing exactly three fields: " +
		"\"is_correct\" (boolean), \"feedback\" (string) and \"points\" (integer)."

	prompt := fmt.Sprintf("Original question: %s\nOfficial correct answer: %s\nPlayer's answer: %s",
		question, correctAnswer, userAnswer)

	var out Judgment
	if err := c.complete(ctx, system, prompt, &out); err != nil {
		return nil, err
	}

	if out.Points < 0 || (!out.IsCorrect && out.Points != 0) {
		return nil, fmt.Errorf("%w: inconsistent points in response", ErrUnavailable)
	}
	return &out, nil
}

// complete posts one chat completion and decodes the model's JSON reply into v.
func (c *Client) complete(ctx context.Context, system, prompt string, v interface{}) error {
	reqBody := chatCompletionRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: API error (status %d): %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if result.Error != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return fmt.Errorf("%w: response contained no choices", ErrUnavailable)
	}

	if err := json.Unmarshal([]byte(result.Choices[0].Message.Content), v); err != nil {
		return fmt.Errorf("%w: malformed completion content: %v", ErrUnavailable, err)
	}
	return nil
}
