package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"turfbook/internal/auth"
	"turfbook/internal/config"
	"turfbook/internal/logger"
)

// SMSSender pushes booking texts through the SMS gateway. The gateway wants
// a machine-to-machine bearer token, which is cached in Redis and shared
// across replicas.
type SMSSender struct {
	cfg    config.SMSConfig
	issuer string
	cache  *auth.RedisTokenCache
	client *http.Client
	log    *logger.Logger
}

func NewSMSSender(cfg config.SMSConfig, issuer string, cache *auth.RedisTokenCache, log *logger.Logger) *SMSSender {
	return &SMSSender{
		cfg:    cfg,
		issuer: issuer,
		cache:  cache,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (s *SMSSender) token(ctx context.Context) (string, error) {
	if s.cache != nil {
		cached, err := s.cache.GetToken(ctx)
		if err != nil {
			s.log.Warn("SMS", fmt.Sprintf("Token cache lookup failed: %v", err))
		}
		if cached.IsValid() {
			return cached.Token, nil
		}
	}

	token, expiresIn, err := auth.GetM2MToken(s.issuer, s.cfg.ClientID, s.cfg.ClientSecret, s.client, s.log)
	if err != nil {
		return "", fmt.Errorf("failed to obtain gateway token: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetToken(ctx, token, expiresIn); err != nil {
			s.log.Warn("SMS", fmt.Sprintf("Failed to cache gateway token: %v", err))
		}
	}

	return token, nil
}

// Send delivers one text message. Phone numbers go through as given; the
// gateway handles country-code normalization.
func (s *SMSSender) Send(ctx context.Context, phone, message string) error {
	if s.cfg.GatewayURL == "" {
		return fmt.Errorf("sms gateway not configured")
	}
	if phone == "" {
		return fmt.Errorf("no phone number on booking")
	}

	token, err := s.token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"to":      phone,
		"message": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GatewayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}

	s.log.Info("SMS", fmt.Sprintf("Sent booking text to %s", phone))
	return nil
}
