package surveillance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Embed is the Discord-compatible alert body.
type Embed struct {
	Title     string       `json:"title"`
	Author    *EmbedAuthor `json:"author,omitempty"`
	Thumbnail *EmbedImage  `json:"thumbnail,omitempty"`
	Fields    []EmbedField `json:"fields,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookPayload struct {
	Embeds []Embed `json:"embeds"`
}

// Notifier delivers alerts to operators.
type Notifier interface {
	Notify(ctx context.Context, e Embed) error
}

// WebhookNotifier posts embeds to a Discord-style webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookNotifier{url: url, client: client}
}

func (n *WebhookNotifier) Notify(ctx context.Context, e Embed) error {
	body, err := json.Marshal(webhookPayload{Embeds: []Embed{e}})
	if err != nil {
		return fmt.Errorf("encode webhook: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post webhook: unexpected status %s", resp.Status)
	}
	return nil
}

// buildEmbed renders a press-time detection.
func buildEmbed(job Job, times map[Key][]float64, domain, thumbnail string) Embed {
	e := Embed{
		Title: fmt.Sprintf("[%s] Abnormally low presstimes detected", job.Mode),
		Author: &EmbedAuthor{
			Name:    job.PlayerName,
			URL:     fmt.Sprintf("https://%s/u/%d", domain, job.PlayerID),
			IconURL: fmt.Sprintf("https://a.%s/%d", domain, job.PlayerID),
		},
	}
	if thumbnail != "" {
		e.Thumbnail = &EmbedImage{URL: thumbnail}
	}
	for _, k := range Keys {
		value := "N/A"
		if m, ok := mean(times[k]); ok {
			value = fmt.Sprintf("%.2fms", m)
		}
		e.Fields = append(e.Fields, EmbedField{Name: "Key: " + k.String(), Value: value, Inline: true})
	}
	return e
}
