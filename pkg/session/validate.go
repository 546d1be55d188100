package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid session")

// Validate checks the profile against the client schema.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: profile name is required", ErrInvalid)
	}
	if p.Age < MinAge || p.Age > MaxAge {
		return fmt.Errorf("%w: profile age %d outside [%d, %d]", ErrInvalid, p.Age, MinAge, MaxAge)
	}
	if !p.RiskAversion.Valid() {
		return fmt.Errorf("%w: unknown risk aversion %q", ErrInvalid, p.RiskAversion)
	}
	if p.Assets < 0 {
		return fmt.Errorf("%w: assets cannot be negative", ErrInvalid)
	}
	return nil
}

// Validate checks that the record can be stored.
func (r Record) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalid)
	}
	if strings.TrimSpace(r.ClientName) == "" {
		return fmt.Errorf("%w: client name is required", ErrInvalid)
	}
	return r.Profile.Validate()
}
