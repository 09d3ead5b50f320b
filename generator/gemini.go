package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

const (
	DefaultModel   = "gemini-3-flash-preview"
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// responses larger than this are malformed for a two-field draft
	maxResponseSize = 1 << 20
)

// Gemini generates reminder drafts through the generateContent endpoint,
// asking for structured JSON output.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGemini(apiKey, model, baseURL string, client *http.Client) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Gemini{apiKey: apiKey, model: model, baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Generate(ctx context.Context, req Request) (Draft, error) {
	body := generateContentRequest{
		Contents:         []content{{Parts: []part{{Text: buildPrompt(req)}}}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	}
	payload, err := sonic.Marshal(body)
	if err != nil {
		return Draft{}, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Draft{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Draft{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Draft{}, fmt.Errorf("generateContent returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	var out generateContentResponse
	if err := dec.Decode(&out); err != nil {
		return Draft{}, fmt.Errorf("decode generateContent response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return Draft{}, fmt.Errorf("generateContent response has no candidates")
	}

	var draft Draft
	text := out.Candidates[0].Content.Parts[0].Text
	if err := sonic.UnmarshalString(text, &draft); err != nil {
		return Draft{}, fmt.Errorf("decode draft payload: %w", err)
	}
	if draft.Subject == "" || draft.Content == "" {
		return Draft{}, fmt.Errorf("draft payload missing subject or content")
	}
	return draft, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a persistent personal assistant at %q.\n", req.CompanyName)
	fmt.Fprintf(&b, "Generate a reminder email for the task: %q.\n", req.TaskTitle)
	fmt.Fprintf(&b, "Task Description: %q.\n", req.TaskDescription)
	fmt.Fprintf(&b, "Assignee: %s.\n", req.AssigneeEmail)
	if req.SenderEmail != "" {
		fmt.Fprintf(&b, "Sender: %s.\n", req.SenderEmail)
	}
	if len(req.PendingItems) > 0 {
		fmt.Fprintf(&b, "Outstanding checklist items: %s.\n", strings.Join(req.PendingItems, "; "))
	}
	if len(req.CompletedItems) > 0 {
		fmt.Fprintf(&b, "Already completed items: %s.\n", strings.Join(req.CompletedItems, "; "))
	}
	fmt.Fprintf(&b, "This is nudge number %d sent to this user.\n\n", req.Sequence+1)
	b.WriteString("Requirements:\n")
	b.WriteString("- Address the user professionally.\n")
	fmt.Fprintf(&b, "- Mention that this reminder is being sent on behalf of %s.\n", req.CompanyName)
	b.WriteString("- The tone should start professional and become increasingly firm and urgent as the reminder count increases.\n")
	b.WriteString("- Keep the email concise and focused on the deadline.\n")
	b.WriteString("- Return the result in JSON format with \"subject\" and \"content\" fields.\n")
	b.WriteString("- Explicitly state: \"Reply to this email with 'finished' to stop these persistent reminders.\"")
	return b.String()
}
