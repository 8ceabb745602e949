package dtg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/dto"
)

// Credential is a DTG credential of a known variant. Its fields are only
// reachable through accessors and Edit, so content can never change while a
// stale proof stays attached.
//
// A Credential is not safe for concurrent mutation.
type Credential struct {
	credential Common
	kind       CredentialType
	version    W3CVCVersion
}

// New creates an unsigned credential of type t with the default contexts and
// types. It fails with ErrMalformedCredential when a field required by t is
// missing, when claims set subject members t does not define, or when
// validUntil is before validFrom.
func New(t CredentialType, issuer, subject string, validFrom time.Time, validUntil *time.Time, claims Claims) (*Credential, error) {
	v, ok := lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCredential, int(t))
	}

	if claims.Personhood && t != Membership {
		return nil, fmt.Errorf("%w: only membership credentials can be personhood credentials", ErrMalformedCredential)
	}

	types := append(DefaultTypes(), v.typeName)
	if claims.Personhood {
		types = append(types, TypePersonhoodCredential)
	}

	c := Common{
		Context:   DefaultContexts(),
		Type:      types,
		Issuer:    issuer,
		ValidFrom: validFrom,
		CredentialSubject: Subject{
			ID:             subject,
			Endorsement:    cloneRaw(claims.Endorsement),
			Digest:         claims.Digest,
			WitnessContext: claims.WitnessContext,
			Card:           cloneRaw(claims.Card),
		},
	}
	if validUntil != nil {
		until := *validUntil
		c.ValidUntil = &until
	}
	c = c.clone()

	return newFromCommon(c)
}

// Parse decodes and validates a JSON credential. The variant is taken from
// the first DTG type entry (ErrUnknownCredential when none), the data model
// version from @context (ErrUnknownVCVersion when neither W3C context is
// present). Subjects with members their variant does not define are rejected.
func Parse(data []byte) (*Credential, error) {
	c, subject, err := decodeCommon(data)
	if err != nil {
		return nil, err
	}

	kind, err := DetectCredentialType(c.Type)
	if err != nil {
		return nil, err
	}

	if _, err := DetectW3CVCVersion(c.Context); err != nil {
		return nil, err
	}

	if err := validateSubjectJSON(kind, subject); err != nil {
		return nil, err
	}

	return newFromCommon(c)
}

func newFromCommon(c Common) (*Credential, error) {
	c.normalizeTimes()

	kind, version, err := validate(&c)
	if err != nil {
		return nil, err
	}

	return &Credential{credential: c, kind: kind, version: version}, nil
}

func validate(c *Common) (CredentialType, W3CVCVersion, error) {
	kind, err := DetectCredentialType(c.Type)
	if err != nil {
		return 0, 0, err
	}

	version, err := DetectW3CVCVersion(c.Context)
	if err != nil {
		return 0, 0, err
	}

	if missing := missingFields(kind, c); len(missing) > 0 {
		return 0, 0, fmt.Errorf("%w: %s requires %s", ErrMalformedCredential, kind.Abbreviation(), strings.Join(missing, ", "))
	}

	if unexpected := unexpectedSubjectFields(kind, c); len(unexpected) > 0 {
		return 0, 0, fmt.Errorf("%w: %s does not define credentialSubject.%s", ErrMalformedCredential, kind.Abbreviation(), strings.Join(unexpected, ", credentialSubject."))
	}

	if c.ValidUntil != nil && c.ValidUntil.Before(c.ValidFrom) {
		return 0, 0, fmt.Errorf("%w: validUntil %s is before validFrom %s", ErrMalformedCredential, formatTime(*c.ValidUntil), formatTime(c.ValidFrom))
	}

	return kind, version, nil
}

// Type returns the credential variant.
func (c *Credential) Type() CredentialType {
	return c.kind
}

// Signed reports whether a proof is attached. The proof is not checked.
func (c *Credential) Signed() bool {
	return c.credential.Proof != nil
}

// Credential returns a copy of the envelope.
func (c *Credential) Credential() Common {
	return c.credential.clone()
}

// Edit applies fn to a copy of the envelope and, if the result is a valid
// credential, replaces the content and drops any attached proof. On error the
// credential, including its proof, is unchanged. Proofs set by fn are ignored.
func (c *Credential) Edit(fn func(*Common)) error {
	edited := c.credential.clone()
	edited.Proof = nil
	fn(&edited)
	edited.Proof = nil
	edited.normalizeTimes()

	kind, version, err := validate(&edited)
	if err != nil {
		return err
	}

	c.credential, c.kind, c.version = edited, kind, version
	return nil
}

// ID returns the credential id, empty when none was assigned.
func (c *Credential) ID() string {
	return c.credential.ID
}

// Issuer returns the issuer DID.
func (c *Credential) Issuer() string {
	return c.credential.Issuer
}

// Subject returns the subject DID.
func (c *Credential) Subject() string {
	return c.credential.CredentialSubject.ID
}

// CredentialSubject returns a copy of the subject.
func (c *Credential) CredentialSubject() Subject {
	return c.credential.CredentialSubject.clone()
}

// ValidFrom returns the start of validity in UTC.
func (c *Credential) ValidFrom() time.Time {
	return c.credential.ValidFrom
}

// ValidUntil returns nil for credentials without an end of validity.
func (c *Credential) ValidUntil() *time.Time {
	if c.credential.ValidUntil == nil {
		return nil
	}
	t := *c.credential.ValidUntil
	return &t
}

// ProofValue returns the proof value and true if the credential is signed.
func (c *Credential) ProofValue() (string, bool) {
	if c.credential.Proof == nil {
		return "", false
	}
	return c.credential.Proof.ProofValue, true
}

// W3CVersion returns the W3C VC data model version of the credential.
func (c *Credential) W3CVersion() W3CVCVersion {
	return c.version
}

// IsPersonhoodCredential reports whether this is a Membership credential
// that also serves as a Personhood credential.
func (c *Credential) IsPersonhoodCredential() bool {
	return c.kind == Membership && slices.Contains(c.credential.Type, TypePersonhoodCredential)
}

// IsValidAt reports whether t falls inside the validity period.
func (c *Credential) IsValidAt(t time.Time) bool {
	if t.Before(c.credential.ValidFrom) {
		return false
	}
	return c.credential.ValidUntil == nil || !t.After(*c.credential.ValidUntil)
}

// Proof returns a copy of the attached proof, or nil.
func (c *Credential) Proof() *dto.Proof {
	if c.credential.Proof == nil {
		return nil
	}
	p := *c.credential.Proof
	return &p
}

// AttachProof attaches proof. It fails with ErrAlreadySigned, leaving the
// existing proof in place, if the credential is signed.
func (c *Credential) AttachProof(proof dto.Proof) error {
	if c.credential.Proof != nil {
		return ErrAlreadySigned
	}
	c.credential.Proof = &proof
	return nil
}

// StripProof detaches and returns the proof, or nil if there was none.
func (c *Credential) StripProof() *dto.Proof {
	proof := c.credential.Proof
	c.credential.Proof = nil
	return proof
}

// UnsecuredDocument returns the JSON object form of the credential without
// its proof. The credential is not modified.
func (c *Credential) UnsecuredDocument() (map[string]interface{}, error) {
	unsecured := c.credential.clone()
	unsecured.Proof = nil

	raw, err := json.Marshal(unsecured)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credential: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var doc map[string]interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}

	return doc, nil
}

// MarshalJSON implements json.Marshaler.
func (c *Credential) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.credential)
}

// UnmarshalJSON implements json.Unmarshaler with the validation of Parse.
func (c *Credential) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}
