package dtg

import "time"

// NewVMC creates a Verified Membership Credential. With personhood set the
// credential also carries the PersonhoodCredential type.
func NewVMC(issuer, subject string, validFrom time.Time, validUntil *time.Time, personhood bool) (*Credential, error) {
	return New(Membership, issuer, subject, validFrom, validUntil, Claims{Personhood: personhood})
}

// NewPHC creates a Membership credential usable as a Personhood Credential.
func NewPHC(issuer, subject string, validFrom time.Time, validUntil *time.Time) (*Credential, error) {
	return NewVMC(issuer, subject, validFrom, validUntil, true)
}

// NewVRC creates a Verified Relationship Credential from issuer to subject.
func NewVRC(issuer, subject string, validFrom time.Time, validUntil *time.Time) (*Credential, error) {
	return New(Relationship, issuer, subject, validFrom, validUntil, Claims{})
}

// NewVIC creates a Verified Invitation Credential.
func NewVIC(issuer, subject string, validFrom time.Time, validUntil *time.Time) (*Credential, error) {
	return New(Invitation, issuer, subject, validFrom, validUntil, Claims{})
}

// NewVPC creates a Verified Persona Credential.
func NewVPC(issuer, subject string, validFrom time.Time, validUntil *time.Time) (*Credential, error) {
	return New(Persona, issuer, subject, validFrom, validUntil, Claims{})
}

// NewVEC creates a Verified Endorsement Credential. endorsement may be any
// value that marshals to JSON, including a json.RawMessage.
func NewVEC(issuer, subject string, validFrom time.Time, validUntil *time.Time, endorsement interface{}) (*Credential, error) {
	raw, err := toRaw(endorsement)
	if err != nil {
		return nil, err
	}
	return New(Endorsement, issuer, subject, validFrom, validUntil, Claims{Endorsement: raw})
}

// NewVWC creates a Verified Witness Credential. digest is the hash of the
// witnessed credential; both digest and witnessContext are optional.
func NewVWC(issuer, subject string, validFrom time.Time, validUntil *time.Time, digest *string, witnessContext *WitnessContext) (*Credential, error) {
	return New(Witness, issuer, subject, validFrom, validUntil, Claims{Digest: digest, WitnessContext: witnessContext})
}

// NewRCard creates a relationship card credential carrying a jCard (RFC 7095).
func NewRCard(issuer, subject string, validFrom time.Time, validUntil *time.Time, card interface{}) (*Credential, error) {
	raw, err := toRaw(card)
	if err != nil {
		return nil, err
	}
	return New(RCard, issuer, subject, validFrom, validUntil, Claims{Card: raw})
}
