package authentication

// KeyString holds the credentials the CLI sends as bearer tokens, kept in
// the OS keyring rather than on disk.
import (
	"encoding/json"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "stackit-cli"
	tokenKey    = "auth_tokens"
)

type StoredCredentials struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	APIURL      string `json:"api_url"`
	ExpiresAt   int64  `json:"expires_at"`
}

func StoreTokens(creds *StoredCredentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, tokenKey, string(data))
}

// GetTokens returns keyring.ErrNotFound when nobody is logged in.
func GetTokens() (*StoredCredentials, error) {
	value, err := keyring.Get(serviceName, tokenKey)
	if err != nil {
		return nil, err
	}

	var creds StoredCredentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func DeleteTokens() error {
	err := keyring.Delete(serviceName, tokenKey)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}
