package providers

import (
	"errors"
	"fmt"
	"os"
	"ringsync/internal/structures"

	json "github.com/goccy/go-json"
)

var ErrMissingToken = errors.New("token file is missing the 'token' key")

// NewCredentialsProvider loads the API token. Any failure here is fatal:
// nothing is fetched without a token.
func NewCredentialsProvider(conf *structures.Config, logger Logger) (*structures.Credentials, error) {
	data, err := os.ReadFile(conf.Api.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Errorf(TypeApp, "Token file not found: %s", conf.Api.TokenFile)
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var creds structures.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		logger.Errorf(TypeApp, "Token file %s is not valid JSON", conf.Api.TokenFile)
		return nil, fmt.Errorf("parse token file: %w", err)
	}

	if creds.Token == "" {
		logger.Errorf(TypeApp, "Token file %s is missing the 'token' key", conf.Api.TokenFile)
		return nil, ErrMissingToken
	}
	return &creds, nil
}
