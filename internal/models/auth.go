package models

// M2MTokenResponse is the token endpoint response from the SMS gateway's
// client-credentials flow.
type M2MTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}
