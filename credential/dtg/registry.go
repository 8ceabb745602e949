package dtg

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/exp/slices"
)

const (
	fieldIssuer        = "issuer"
	fieldValidFrom     = "validFrom"
	fieldSubjectID     = "credentialSubject.id"
	fieldEndorsement   = "credentialSubject.endorsement"
	fieldCard          = "credentialSubject.card"
	subjectFieldPrefix = "credentialSubject."
	subjectID          = "id"
	subjectEndorsement = "endorsement"
	subjectDigest      = "digest"
	subjectWitnessCtx  = "witnessContext"
	subjectCard        = "card"
)

type variant struct {
	kind         CredentialType
	typeName     string
	abbreviation string
	// required lists dotted paths that must be present
	required []string
	// subjectFields lists the members credentialSubject may carry
	subjectFields []string
	schema        *gojsonschema.Schema
}

var baseRequired = []string{fieldIssuer, fieldValidFrom, fieldSubjectID}

// registry is ordered: type detection picks the first match.
var registry = []variant{
	{kind: Membership, typeName: "MembershipCredential", abbreviation: "VMC"},
	{kind: Relationship, typeName: "RelationshipCredential", abbreviation: "VRC"},
	{kind: Invitation, typeName: "InvitationCredential", abbreviation: "VIC"},
	{kind: Persona, typeName: "PersonaCredential", abbreviation: "VPC"},
	{
		kind: Endorsement, typeName: "EndorsementCredential", abbreviation: "VEC",
		required:      []string{fieldEndorsement},
		subjectFields: []string{subjectEndorsement},
	},
	{
		kind: Witness, typeName: "WitnessCredential", abbreviation: "VWC",
		subjectFields: []string{subjectDigest, subjectWitnessCtx},
	},
	{
		kind: RCard, typeName: "RCardCredential", abbreviation: "RCard",
		required:      []string{fieldCard},
		subjectFields: []string{subjectCard},
	},
}

var subjectPropertySchemas = map[string]interface{}{
	subjectID:          map[string]interface{}{"type": "string", "minLength": 1},
	subjectEndorsement: map[string]interface{}{},
	subjectDigest:      map[string]interface{}{"type": "string"},
	subjectWitnessCtx: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"event":     map[string]interface{}{"type": []string{"string", "null"}},
			"sessionId": map[string]interface{}{"type": []string{"string", "null"}},
			"method":    map[string]interface{}{"type": []string{"string", "null"}},
		},
		"additionalProperties": false,
	},
	subjectCard: map[string]interface{}{},
}

func init() {
	for i := range registry {
		v := &registry[i]
		v.required = append(append([]string{}, baseRequired...), v.required...)
		sort.Strings(v.required)
		v.subjectFields = append([]string{subjectID}, v.subjectFields...)

		schema, err := buildSubjectSchema(v)
		if err != nil {
			panic(fmt.Sprintf("dtg: invalid subject schema for %s: %v", v.typeName, err))
		}
		v.schema = schema
	}
}

func buildSubjectSchema(v *variant) (*gojsonschema.Schema, error) {
	properties := map[string]interface{}{}
	for _, field := range v.subjectFields {
		properties[field] = subjectPropertySchemas[field]
	}

	var required []string
	for _, field := range v.required {
		if strings.HasPrefix(field, subjectFieldPrefix) {
			required = append(required, strings.TrimPrefix(field, subjectFieldPrefix))
		}
	}

	raw, err := json.Marshal(map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	})
	if err != nil {
		return nil, err
	}

	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
}

func lookup(t CredentialType) (variant, bool) {
	for _, v := range registry {
		if v.kind == t {
			return v, true
		}
	}
	return variant{}, false
}

// RequiredFields returns the dotted paths every credential of type t must
// carry, sorted. It returns nil for an unknown type.
func RequiredFields(t CredentialType) []string {
	v, ok := lookup(t)
	if !ok {
		return nil
	}
	return append([]string(nil), v.required...)
}

// SubjectFields returns the members a credentialSubject of type t may carry.
func SubjectFields(t CredentialType) []string {
	v, ok := lookup(t)
	if !ok {
		return nil
	}
	return append([]string(nil), v.subjectFields...)
}

// validateSubjectJSON checks a raw credentialSubject against the schema of t.
// Unknown members are rejected.
func validateSubjectJSON(t CredentialType, raw json.RawMessage) error {
	v, ok := lookup(t)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCredential, int(t))
	}

	if len(raw) == 0 {
		return fmt.Errorf("%w: missing credentialSubject", ErrMalformedCredential)
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: failed to validate credentialSubject: %w", ErrMalformedCredential, err)
	}

	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%w: invalid %s credentialSubject: %s", ErrMalformedCredential, v.abbreviation, strings.Join(details, "; "))
	}

	return nil
}

// missingFields returns the required paths of t absent from c.
func missingFields(t CredentialType, c *Common) []string {
	var missing []string
	for _, field := range RequiredFields(t) {
		if !fieldPresent(field, c) {
			missing = append(missing, field)
		}
	}
	return missing
}

func fieldPresent(field string, c *Common) bool {
	switch field {
	case fieldIssuer:
		return c.Issuer != ""
	case fieldValidFrom:
		return !c.ValidFrom.IsZero()
	case fieldSubjectID:
		return c.CredentialSubject.ID != ""
	case fieldEndorsement:
		return len(c.CredentialSubject.Endorsement) > 0
	case fieldCard:
		return len(c.CredentialSubject.Card) > 0
	default:
		return false
	}
}

// unexpectedSubjectFields returns the subject members set on c that t does not define.
func unexpectedSubjectFields(t CredentialType, c *Common) []string {
	allowed := SubjectFields(t)

	s := c.CredentialSubject
	present := map[string]bool{
		subjectEndorsement: len(s.Endorsement) > 0,
		subjectDigest:      s.Digest != nil,
		subjectWitnessCtx:  s.WitnessContext != nil,
		subjectCard:        len(s.Card) > 0,
	}

	var unexpected []string
	for field, set := range present {
		if set && !slices.Contains(allowed, field) {
			unexpected = append(unexpected, field)
		}
	}
	sort.Strings(unexpected)
	return unexpected
}
