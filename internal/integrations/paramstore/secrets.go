package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Secrets are the channel and API credentials fetched from Parameter Store
// when PARAM_PREFIX is set.
type Secrets struct {
	ChannelAccessToken string
	ChannelSecret      string
	OpenAIAPIKey       string
}

// tokenPayload is the expected JSON shape stored in SSM for the OpenAI token.
type tokenPayload struct {
	Token string `json:"token"`
}

// LoadSecrets fetches all three secrets under the given prefix. The LINE
// parameters are stored as plain strings; the OpenAI token is a JSON object
// with a "token" key.
func LoadSecrets(ctx context.Context, g Getter, prefix string) (Secrets, error) {
	if g == nil {
		return Secrets{}, errors.New("paramstore: getter must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return Secrets{}, errors.New("paramstore: parameter prefix must not be empty")
	}

	accessToken, err := g.GetParameter(ctx, prefix+"/line-access-token")
	if err != nil {
		return Secrets{}, fmt.Errorf("paramstore: load access token: %w", err)
	}
	channelSecret, err := g.GetParameter(ctx, prefix+"/line-channel-secret")
	if err != nil {
		return Secrets{}, fmt.Errorf("paramstore: load channel secret: %w", err)
	}
	apiKey, err := loadOpenAIToken(ctx, g, prefix+"/open-ai-token")
	if err != nil {
		return Secrets{}, err
	}

	s := Secrets{
		ChannelAccessToken: strings.TrimSpace(accessToken),
		ChannelSecret:      strings.TrimSpace(channelSecret),
		OpenAIAPIKey:       apiKey,
	}
	if s.ChannelAccessToken == "" || s.ChannelSecret == "" {
		return Secrets{}, errors.New("paramstore: channel credentials are empty")
	}
	return s, nil
}

func loadOpenAIToken(ctx context.Context, g Getter, name string) (string, error) {
	raw, err := g.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch openai token: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("paramstore: unmarshal openai token value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", errors.New("paramstore: openai token is empty")
	}
	return strings.TrimSpace(tp.Token), nil
}
