package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client talks to the Google Translate v2 REST API. Used to maintain the
// localized name map on categories.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL: "https://translation.googleapis.com/language/translate/v2",
		APIKey:  os.Getenv("GOOGLE_TRANSLATE_API_KEY"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate returns text in the target language.
func (c *Client) Translate(ctx context.Context, text, target string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("translate: GOOGLE_TRANSLATE_API_KEY not set")
	}

	form := url.Values{}
	form.Set("q", text)
	form.Set("target", target)
	form.Set("format", "text")
	form.Set("key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("translate: upstream status %d", resp.StatusCode)
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Data.Translations) == 0 {
		return "", fmt.Errorf("translate: empty result")
	}
	return out.Data.Translations[0].TranslatedText, nil
}

// LocalizeAll translates text into each target language, skipping languages
// that fail so one bad call does not lose the rest.
func (c *Client) LocalizeAll(ctx context.Context, text string, targets []string) map[string]string {
	out := make(map[string]string, len(targets))
	for _, lang := range targets {
		translated, err := c.Translate(ctx, text, lang)
		if err != nil {
			continue
		}
		out[lang] = translated
	}
	return out
}
