package dtg

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

const (
	ContextW3CVCv1 = "https://www.w3.org/2018/credentials/v1"
	ContextW3CVCv2 = "https://www.w3.org/ns/credentials/v2"
	ContextDTG     = "https://firstperson.network/credentials/dtg/v1"

	TypeVerifiableCredential = "VerifiableCredential"
	TypeDTGCredential        = "DTGCredential"
	TypePersonhoodCredential = "PersonhoodCredential"
)

// DefaultContexts returns the @context of newly created credentials.
func DefaultContexts() []string {
	return []string{ContextW3CVCv2, ContextDTG}
}

// DefaultTypes returns the type entries shared by every DTG credential.
func DefaultTypes() []string {
	return []string{TypeVerifiableCredential, TypeDTGCredential}
}

// CredentialType is a DTG credential variant.
type CredentialType int

const (
	Membership CredentialType = iota
	Relationship
	Invitation
	Persona
	Endorsement
	Witness
	RCard
)

// String returns the type entry of the variant, e.g. "RelationshipCredential".
func (t CredentialType) String() string {
	if v, ok := lookup(t); ok {
		return v.typeName
	}
	return fmt.Sprintf("CredentialType(%d)", int(t))
}

// Abbreviation returns the short name of the variant, e.g. "VRC".
func (t CredentialType) Abbreviation() string {
	if v, ok := lookup(t); ok {
		return v.abbreviation
	}
	return ""
}

// DetectCredentialType returns the first variant, in registry order, whose
// type entry appears in types.
func DetectCredentialType(types []string) (CredentialType, error) {
	for _, v := range registry {
		if slices.Contains(types, v.typeName) {
			return v.kind, nil
		}
	}

	return 0, fmt.Errorf("%w: %v", ErrUnknownCredential, types)
}

// ParseCredentialType accepts an abbreviation ("VRC"), a type entry
// ("RelationshipCredential") or a variant name ("relationship"), ignoring case.
func ParseCredentialType(name string) (CredentialType, error) {
	for _, v := range registry {
		if strings.EqualFold(name, v.abbreviation) ||
			strings.EqualFold(name, v.typeName) ||
			strings.EqualFold(name, strings.TrimSuffix(v.typeName, "Credential")) {
			return v.kind, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownCredential, name)
}

// CredentialTypes returns every variant in registry order.
func CredentialTypes() []CredentialType {
	types := make([]CredentialType, len(registry))
	for i, v := range registry {
		types[i] = v.kind
	}
	return types
}

// W3CVCVersion is the W3C Verifiable Credentials data model version.
type W3CVCVersion int

const (
	W3CVCVersion1 W3CVCVersion = iota + 1
	W3CVCVersion2
)

func (v W3CVCVersion) String() string {
	switch v {
	case W3CVCVersion1:
		return "1.1"
	case W3CVCVersion2:
		return "2.0"
	default:
		return "unknown"
	}
}

// DetectW3CVCVersion returns the data model version named by contexts. The 1.1
// context wins when both are present.
func DetectW3CVCVersion(contexts []string) (W3CVCVersion, error) {
	switch {
	case slices.Contains(contexts, ContextW3CVCv1):
		return W3CVCVersion1, nil
	case slices.Contains(contexts, ContextW3CVCv2):
		return W3CVCVersion2, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownVCVersion, contexts)
	}
}
