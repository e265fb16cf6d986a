package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"Tutter/internal/core/accounts"
)

// credentials is the signed-in session saved between CLI invocations
type credentials struct {
	Server      string `json:"server"`
	PrincipalID string `json:"principalId"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	AccessJwt   string `json:"accessJwt"`
}

var errNotSignedIn = errors.New("not signed in: run 'tutter signin' or 'tutter signup' first")

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tutter-session.json"
	}
	return filepath.Join(dir, "tutter", "session.json")
}

func loadCredentials(path string) (*credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errNotSignedIn
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	var creds credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", path, err)
	}
	if creds.AccessJwt == "" || creds.PrincipalID == "" {
		return nil, errNotSignedIn
	}
	return &creds, nil
}

func saveCredentials(path, server string, session *accounts.SessionResponse) error {
	creds := credentials{
		Server:      server,
		PrincipalID: session.PrincipalID,
		Username:    session.Username,
		Email:       session.Email,
		AccessJwt:   session.AccessJwt,
	}
	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

func removeCredentials(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
