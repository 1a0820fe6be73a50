package exam

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	accessCodeBytes = 2
	editCodeBytes   = 8
)

// Secrets are the credentials of an exam. They are stored apart from the
// exam document so that reading an exam never leaks them.
type Secrets struct {
	Owner      string `json:"owner"`
	AccessCode string `json:"accessCode"`
	EditCode   string `json:"editCode"`
}

// NewSecrets generates fresh access and edit codes for owner.
func NewSecrets(owner string) (Secrets, error) {
	access, err := randomHex(accessCodeBytes)
	if err != nil {
		return Secrets{}, err
	}
	edit, err := randomHex(editCodeBytes)
	if err != nil {
		return Secrets{}, err
	}
	return Secrets{Owner: owner, AccessCode: access, EditCode: edit}, nil
}

// CheckEdit reports whether code matches the edit code.
func (s Secrets) CheckEdit(code string) bool {
	return code != "" && subtle.ConstantTimeCompare([]byte(s.EditCode), []byte(code)) == 1
}

// CheckAccess reports whether code matches the access code.
func (s Secrets) CheckAccess(code string) bool {
	return code != "" && subtle.ConstantTimeCompare([]byte(s.AccessCode), []byte(code)) == 1
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
