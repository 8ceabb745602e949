package dtg

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"
)

// Subject is the credentialSubject of a DTG credential. Which members beyond
// ID may be set depends on the credential type.
type Subject struct {
	ID string `json:"id"`

	// Endorsement is free-form JSON carried by Endorsement credentials.
	Endorsement json.RawMessage `json:"endorsement,omitempty"`

	// Digest is the hash of the witnessed credential, for Witness credentials.
	Digest *string `json:"digest,omitempty"`

	// WitnessContext describes the witnessed event, for Witness credentials.
	WitnessContext *WitnessContext `json:"witnessContext,omitempty"`

	// Card is a jCard (RFC 7095), for RCard credentials.
	Card json.RawMessage `json:"card,omitempty"`
}

// WitnessContext is the semantic context of a witness. Unset members are
// serialized as null, except members a parsed credential did not carry at all,
// which stay absent.
type WitnessContext struct {
	Event     *string
	SessionID *string
	Method    *string

	absent []string
}

const (
	witnessEvent     = "event"
	witnessSessionID = "sessionId"
	witnessMethod    = "method"
)

type witnessMember struct {
	name  string
	value **string
}

func (w *WitnessContext) members() []witnessMember {
	return []witnessMember{
		{name: witnessEvent, value: &w.Event},
		{name: witnessSessionID, value: &w.SessionID},
		{name: witnessMethod, value: &w.Method},
	}
}

// MarshalJSON implements json.Marshaler.
func (w WitnessContext) MarshalJSON() ([]byte, error) {
	out := map[string]*string{}
	for _, m := range w.members() {
		if *m.value == nil && slices.Contains(w.absent, m.name) {
			continue
		}
		out[m.name] = *m.value
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Members other than event,
// sessionId and method are ignored here; Parse rejects them.
func (w *WitnessContext) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decoded := WitnessContext{}
	for _, m := range decoded.members() {
		value, ok := raw[m.name]
		if !ok {
			decoded.absent = append(decoded.absent, m.name)
			continue
		}
		if err := json.Unmarshal(value, m.value); err != nil {
			return fmt.Errorf("invalid witnessContext.%s: %w", m.name, err)
		}
	}

	*w = decoded
	return nil
}

func (w WitnessContext) clone() WitnessContext {
	return WitnessContext{
		Event:     cloneString(w.Event),
		SessionID: cloneString(w.SessionID),
		Method:    cloneString(w.Method),
		absent:    append([]string(nil), w.absent...),
	}
}

// Optional returns a pointer to v, for the optional string members of
// Claims and WitnessContext.
func Optional(v string) *string {
	return &v
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// Claims holds the variant-specific payload passed to New.
type Claims struct {
	Endorsement    json.RawMessage
	Digest         *string
	WitnessContext *WitnessContext
	Card           json.RawMessage

	// Personhood marks a Membership credential as a Personhood credential.
	Personhood bool
}

func (s Subject) clone() Subject {
	out := s
	out.Endorsement = cloneRaw(s.Endorsement)
	out.Card = cloneRaw(s.Card)
	out.Digest = cloneString(s.Digest)
	if s.WitnessContext != nil {
		wc := s.WitnessContext.clone()
		out.WitnessContext = &wc
	}
	return out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage{}, raw...)
}

// toRaw marshals an arbitrary claim value. nil stays nil.
func toRaw(value interface{}) (json.RawMessage, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, fmt.Errorf("%w: invalid JSON claim value", ErrMalformedCredential)
		}
		return cloneRaw(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal claim value: %w", ErrMalformedCredential, err)
		}
		return raw, nil
	}
}
