package gateway

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrCredential marks a bad or missing signing key, or a failed token
// exchange. It is fatal to the whole dispatch batch for that run.
var ErrCredential = errors.New("gateway: credential error")

// ServiceAccount is the subset of a Google service-account key file the
// engine needs.
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`

	key *rsa.PrivateKey
}

// LoadServiceAccount reads and validates a service-account key file.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read key file: %v", ErrCredential, err)
	}
	return ParseServiceAccount(b)
}

// ParseServiceAccount validates raw key-file JSON.
func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("%w: parse key file: %v", ErrCredential, err)
	}
	if strings.TrimSpace(sa.ClientEmail) == "" || strings.TrimSpace(sa.PrivateKey) == "" {
		return nil, fmt.Errorf("%w: key file missing client_email or private_key", ErrCredential)
	}
	if strings.TrimSpace(sa.ProjectID) == "" {
		return nil, fmt.Errorf("%w: key file missing project_id", ErrCredential)
	}
	if strings.TrimSpace(sa.TokenURI) == "" {
		sa.TokenURI = "https://oauth2.googleapis.com/token"
	}

	key, err := parsePrivateKey([]byte(sa.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredential, err)
	}
	sa.key = key
	return &sa, nil
}

func (sa *ServiceAccount) Key() *rsa.PrivateKey { return sa.key }

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("private_key is not PEM")
	}
	// Key files ship PKCS#8; accept PKCS#1 too.
	if k, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("private_key is not RSA")
		}
		return rsaKey, nil
	}
	k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private_key: %w", err)
	}
	return k, nil
}
