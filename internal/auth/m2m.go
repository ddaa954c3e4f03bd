package auth

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"turfbook/internal/logger"
	"turfbook/internal/models"
)

// GetM2MToken fetches a client-credentials token from the OIDC issuer for
// calls to the SMS gateway.
func GetM2MToken(issuer, clientID, clientSecret string, client *http.Client, log *logger.Logger) (string, int, error) {
	tokenURL := fmt.Sprintf("%s/protocol/openid-connect/token", strings.TrimRight(issuer, "/"))

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)

	req, err := http.NewRequest("POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		if log != nil {
			log.Error("AUTH", fmt.Sprintf("M2M token request failed: %v", err))
		}
		return "", 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && log != nil {
			log.Warn("AUTH", fmt.Sprintf("Error closing token response body: %v", cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		if log != nil {
			log.Error("AUTH", fmt.Sprintf("M2M token response %s: %s", resp.Status, string(bodyBytes)))
		}
		return "", 0, fmt.Errorf("failed to get token, status: %s", resp.Status)
	}

	var tokenResp models.M2MTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", 0, err
	}

	return tokenResp.AccessToken, tokenResp.ExpiresIn, nil
}
