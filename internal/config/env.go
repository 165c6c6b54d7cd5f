package config

import (
	"errors"
	"os"
	"strings"
)

// EnvWebhookURL names the required environment variable holding the
// incoming-webhook URL.
const EnvWebhookURL = "SLACK_WEBHOOK_URL"

var ErrMissingWebhook = errors.New(EnvWebhookURL + " is not set")

// WebhookURL reads the webhook URL from the environment.
func WebhookURL() (string, error) {
	return webhookURLFrom(os.LookupEnv)
}

func webhookURLFrom(lookup func(string) (string, bool)) (string, error) {
	v, ok := lookup(EnvWebhookURL)
	if !ok || strings.TrimSpace(v) == "" {
		return "", ErrMissingWebhook
	}
	return strings.TrimSpace(v), nil
}
