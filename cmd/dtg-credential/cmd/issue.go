package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/provider"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/signer"
	"github.com/firstperson-network/go-dtg-credentials/credential/dtg"
	"github.com/firstperson-network/go-dtg-credentials/credential/integrity"
)

const (
	flagType               = "type"
	flagIssuer             = "issuer"
	flagSubject            = "subject"
	flagValidFrom          = "valid-from"
	flagValidUntil         = "valid-until"
	flagWithID             = "with-id"
	flagPersonhood         = "personhood"
	flagEndorsement        = "endorsement"
	flagDigest             = "digest"
	flagWitnessEvent       = "witness-event"
	flagWitnessSession     = "witness-session"
	flagWitnessMethod      = "witness-method"
	flagCard               = "card"
	flagPrivateKey         = "private-key"
	flagVerificationMethod = "verification-method"
	flagCreated            = "created"
	flagRemoteSigner       = "remote-signer"
	flagRemoteSignerAPIKey = "remote-signer-api-key"
	flagCompact            = "compact"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Creates and optionally signs a DTG credential",
	Long: `Creates a DTG credential and prints it as JSON.

The credential is signed when --private-key (or DTG_PRIVATE_KEY) is set, or
through a remote signing API with --remote-signer and --verification-method.
The issuer defaults to the DID of the signing key.

Types: VMC, PHC, VRC, VIC, VPC, VEC, VWC, RCard.`,
	Args: cobra.NoArgs,
	RunE: runIssue,
}

func init() {
	flags := issueCmd.Flags()
	flags.String(flagType, "", "credential type, e.g. VRC or RelationshipCredential")
	flags.String(flagIssuer, "", "issuer DID")
	flags.String(flagSubject, "", "subject DID")
	flags.String(flagValidFrom, "", "start of validity, RFC 3339 (default now)")
	flags.String(flagValidUntil, "", "end of validity, RFC 3339")
	flags.Bool(flagWithID, false, "assign a urn:uuid identifier")
	flags.Bool(flagPersonhood, false, "mark a membership credential as a personhood credential")
	flags.String(flagEndorsement, "", "endorsement claim as JSON (VEC)")
	flags.String(flagDigest, "", "digest of the witnessed credential (VWC)")
	flags.String(flagWitnessEvent, "", "witnessed event (VWC)")
	flags.String(flagWitnessSession, "", "witness session id (VWC)")
	flags.String(flagWitnessMethod, "", "witnessing method (VWC)")
	flags.String(flagCard, "", "jCard as JSON (RCard)")
	flags.String(flagPrivateKey, "", "hex private key to sign with")
	flags.String(flagKeyType, keyTypeEd25519, "private key type: ed25519 or secp256k1")
	flags.String(flagVerificationMethod, "", "verification method of the key (default its did:key)")
	flags.String(flagCreated, "", "proof creation time, RFC 3339 (default now)")
	flags.String(flagRemoteSigner, "", "URL of a remote signing API")
	flags.String(flagRemoteSignerAPIKey, "", "API key of the remote signing API")
	flags.Bool(flagCompact, false, "print the compressed base64url form instead of JSON")
}

// issueRequest holds everything needed to build a credential.
type issueRequest struct {
	kind       dtg.CredentialType
	issuer     string
	subject    string
	validFrom  time.Time
	validUntil *time.Time
	withID     bool
	claims     dtg.Claims
}

func runIssue(cmd *cobra.Command, _ []string) error {
	key, err := signingKey()
	if err != nil {
		return err
	}

	req, err := issueRequestFromConfig(time.Now())
	if err != nil {
		return err
	}
	if req.issuer == "" && key != nil {
		req.issuer = didOf(key.VerificationMethod())
	}

	credential, err := buildCredential(req)
	if err != nil {
		return err
	}

	if key != nil {
		opts := []integrity.Option{integrity.WithLogger(logger)}
		if created := conf.GetString(flagCreated); created != "" {
			t, err := time.Parse(time.RFC3339, created)
			if err != nil {
				return fmt.Errorf("invalid --%s: %w", flagCreated, err)
			}
			opts = append(opts, integrity.WithCreated(t))
		}

		if _, err := credential.Sign(cmd.Context(), key, opts...); err != nil {
			return err
		}
		logger.Debug("credential signed",
			zap.String("type", credential.Type().Abbreviation()),
			zap.String("verificationMethod", key.VerificationMethod()))
	}

	if conf.GetBool(flagCompact) {
		compact, err := credential.Compact()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), compact)
		return err
	}

	return writeJSON(cmd.OutOrStdout(), credential)
}

// signingKey returns the configured signer, or nil for unsigned credentials.
func signingKey() (provider.KeySigner, error) {
	privateKey := conf.GetString(flagPrivateKey)
	endpoint := conf.GetString(flagRemoteSigner)
	if privateKey == "" && endpoint == "" {
		return nil, nil
	}
	if privateKey != "" && endpoint != "" {
		return nil, fmt.Errorf("--%s and --%s are mutually exclusive", flagPrivateKey, flagRemoteSigner)
	}

	keyType, err := parseKeyType(conf.GetString(flagKeyType))
	if err != nil {
		return nil, err
	}

	if endpoint != "" {
		remote, err := signer.NewRemoteSigner(endpoint, conf.GetString(flagVerificationMethod), keyType.Cryptosuite(),
			signer.WithAPIKey(conf.GetString(flagRemoteSignerAPIKey)),
			signer.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return remote, nil
	}

	return loadKey(keyType, privateKey, conf.GetString(flagVerificationMethod))
}

func issueRequestFromConfig(now time.Time) (issueRequest, error) {
	typeName := conf.GetString(flagType)
	if typeName == "" {
		return issueRequest{}, fmt.Errorf("--%s is required", flagType)
	}

	req := issueRequest{
		issuer:  conf.GetString(flagIssuer),
		subject: conf.GetString(flagSubject),
		withID:  conf.GetBool(flagWithID),
		claims: dtg.Claims{
			Digest:     optionalFlag(flagDigest),
			Personhood: conf.GetBool(flagPersonhood),
		},
	}

	// PHC is a membership credential with the personhood type
	if strings.EqualFold(typeName, "PHC") {
		req.kind = dtg.Membership
		req.claims.Personhood = true
	} else {
		kind, err := dtg.ParseCredentialType(typeName)
		if err != nil {
			return issueRequest{}, err
		}
		req.kind = kind
	}

	req.validFrom = now
	if value := conf.GetString(flagValidFrom); value != "" {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return issueRequest{}, fmt.Errorf("invalid --%s: %w", flagValidFrom, err)
		}
		req.validFrom = t
	}

	if value := conf.GetString(flagValidUntil); value != "" {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return issueRequest{}, fmt.Errorf("invalid --%s: %w", flagValidUntil, err)
		}
		req.validUntil = &t
	}

	var err error
	if req.claims.Endorsement, err = jsonFlag(flagEndorsement); err != nil {
		return issueRequest{}, err
	}
	if req.claims.Card, err = jsonFlag(flagCard); err != nil {
		return issueRequest{}, err
	}

	witness := &dtg.WitnessContext{
		Event:     optionalFlag(flagWitnessEvent),
		SessionID: optionalFlag(flagWitnessSession),
		Method:    optionalFlag(flagWitnessMethod),
	}
	if witness.Event != nil || witness.SessionID != nil || witness.Method != nil {
		req.claims.WitnessContext = witness
	}

	return req, nil
}

// optionalFlag returns nil for an unset or empty string flag.
func optionalFlag(name string) *string {
	value := conf.GetString(name)
	if value == "" {
		return nil
	}
	return dtg.Optional(value)
}

func jsonFlag(name string) (json.RawMessage, error) {
	value := conf.GetString(name)
	if value == "" {
		return nil, nil
	}
	if !json.Valid([]byte(value)) {
		return nil, fmt.Errorf("--%s is not valid JSON", name)
	}
	return json.RawMessage(value), nil
}

func buildCredential(req issueRequest) (*dtg.Credential, error) {
	credential, err := dtg.New(req.kind, req.issuer, req.subject, req.validFrom, req.validUntil, req.claims)
	if err != nil {
		return nil, err
	}

	if req.withID {
		id := "urn:uuid:" + uuid.NewString()
		if err := credential.Edit(func(c *dtg.Common) { c.ID = id }); err != nil {
			return nil, err
		}
	}

	return credential, nil
}

// didOf strips the fragment of a DID URL.
func didOf(didURL string) string {
	did, _, _ := strings.Cut(didURL, "#")
	return did
}
