package dtg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/dto"
)

// Common is the envelope shared by every DTG credential.
type Common struct {
	Context           []string
	ID                string
	Type              []string
	Issuer            string
	ValidFrom         time.Time
	ValidUntil        *time.Time
	CredentialSubject Subject
	Proof             *dto.Proof

	// legacyDates keeps the W3C VC 1.1 names (issuanceDate, expirationDate)
	// a parsed credential used, so re-serialization reproduces them.
	legacyDates bool
}

type commonJSON struct {
	Context           []string        `json:"@context"`
	ID                string          `json:"id,omitempty"`
	Type              []string        `json:"type"`
	Issuer            string          `json:"issuer"`
	ValidFrom         string          `json:"validFrom,omitempty"`
	IssuanceDate      string          `json:"issuanceDate,omitempty"`
	ValidUntil        string          `json:"validUntil,omitempty"`
	ExpirationDate    string          `json:"expirationDate,omitempty"`
	CredentialSubject json.RawMessage `json:"credentialSubject"`
	Proof             *dto.Proof      `json:"proof,omitempty"`
}

// MarshalJSON renders timestamps as RFC 3339 UTC with second precision.
func (c Common) MarshalJSON() ([]byte, error) {
	subject, err := json.Marshal(c.CredentialSubject)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentialSubject: %w", err)
	}

	out := commonJSON{
		Context:           c.Context,
		ID:                c.ID,
		Type:              c.Type,
		Issuer:            c.Issuer,
		CredentialSubject: subject,
		Proof:             c.Proof,
	}

	validFrom := ""
	if !c.ValidFrom.IsZero() {
		validFrom = formatTime(c.ValidFrom)
	}
	validUntil := ""
	if c.ValidUntil != nil {
		validUntil = formatTime(*c.ValidUntil)
	}

	if c.legacyDates {
		out.IssuanceDate, out.ExpirationDate = validFrom, validUntil
	} else {
		out.ValidFrom, out.ValidUntil = validFrom, validUntil
	}

	return json.Marshal(out)
}

// UnmarshalJSON accepts issuanceDate and expirationDate as aliases of
// validFrom and validUntil. It does not validate the credential; use Parse.
func (c *Common) UnmarshalJSON(data []byte) error {
	decoded, _, err := decodeCommon(data)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

func decodeCommon(data []byte) (Common, json.RawMessage, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Common{}, nil, fmt.Errorf("%w: JSON string is empty", ErrMalformedCredential)
	}

	var in commonJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return Common{}, nil, fmt.Errorf("%w: failed to unmarshal credential: %w", ErrMalformedCredential, err)
	}

	c := Common{
		Context: in.Context,
		ID:      in.ID,
		Type:    in.Type,
		Issuer:  in.Issuer,
		Proof:   in.Proof,
	}

	validFrom := in.ValidFrom
	validUntil := in.ValidUntil
	if validFrom == "" && in.IssuanceDate != "" {
		validFrom = in.IssuanceDate
		c.legacyDates = true
	}
	if validUntil == "" && in.ExpirationDate != "" {
		validUntil = in.ExpirationDate
	}

	if validFrom != "" {
		t, err := parseTime(validFrom)
		if err != nil {
			return Common{}, nil, fmt.Errorf("%w: invalid validFrom: %w", ErrMalformedCredential, err)
		}
		c.ValidFrom = t
	}

	if validUntil != "" {
		t, err := parseTime(validUntil)
		if err != nil {
			return Common{}, nil, fmt.Errorf("%w: invalid validUntil: %w", ErrMalformedCredential, err)
		}
		c.ValidUntil = &t
	}

	subject := in.CredentialSubject
	if len(subject) > 0 && !bytes.Equal(bytes.TrimSpace(subject), []byte("null")) {
		if err := json.Unmarshal(subject, &c.CredentialSubject); err != nil {
			return Common{}, nil, fmt.Errorf("%w: invalid credentialSubject: %w", ErrMalformedCredential, err)
		}
	} else {
		subject = nil
	}

	return c, subject, nil
}

func (c Common) clone() Common {
	out := c
	out.Context = append([]string(nil), c.Context...)
	out.Type = append([]string(nil), c.Type...)
	if c.ValidUntil != nil {
		t := *c.ValidUntil
		out.ValidUntil = &t
	}
	out.CredentialSubject = c.CredentialSubject.clone()
	if c.Proof != nil {
		p := *c.Proof
		out.Proof = &p
	}
	return out
}

// normalizeTimes truncates the validity period to whole seconds in UTC, the
// precision of the serialized form.
func (c *Common) normalizeTimes() {
	c.ValidFrom = c.ValidFrom.UTC().Truncate(time.Second)
	if c.ValidUntil != nil {
		t := c.ValidUntil.UTC().Truncate(time.Second)
		c.ValidUntil = &t
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
