package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/jsonmap"
	"github.com/firstperson-network/go-dtg-credentials/credential/dtg"
	"github.com/firstperson-network/go-dtg-credentials/credential/integrity"
)

const (
	flagPublicKey = "public-key"
	flagRaw       = "raw"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [file]",
	Short: "Verifies the proof of a DTG credential",
	Long: `Verifies the proof of a DTG credential read from file, or stdin when
file is "-" or omitted. Both the JSON and the compact form are accepted.

With --public-key the proof is checked against that key. Otherwise the key is
resolved from the proof's verification method: did:key locally, other methods
through the resolver at --resolver-url.

With --raw the input is any JSON document carrying a Data Integrity proof and
only the proof is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String(flagPublicKey, "", "public key as hex or publicKeyMultibase")
	verifyCmd.Flags().Bool(flagRaw, false, "verify any JSON document secured with a Data Integrity proof")
}

// verifyResult is the JSON output of verify.
type verifyResult struct {
	Verified           bool   `json:"verified"`
	Type               string `json:"type,omitempty"`
	W3CVersion         string `json:"w3cVersion,omitempty"`
	Issuer             string `json:"issuer,omitempty"`
	Subject            string `json:"subject,omitempty"`
	VerificationMethod string `json:"verificationMethod"`
	CurrentlyValid     *bool  `json:"currentlyValid,omitempty"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	if conf.GetBool(flagRaw) {
		doc, err := jsonmap.Parse(data)
		if err != nil {
			return err
		}
		if err := verifyDocument(cmd.Context(), doc); err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), verifyResult{
			Verified:           true,
			VerificationMethod: doc.Proof().VerificationMethod,
		})
	}

	credential, err := parseCredential(data)
	if err != nil {
		return err
	}

	if err := verifyDocument(cmd.Context(), credential); err != nil {
		return err
	}

	proof := credential.Proof()
	valid := credential.IsValidAt(time.Now())
	return writeJSON(cmd.OutOrStdout(), verifyResult{
		Verified:           true,
		Type:               credential.Type().Abbreviation(),
		W3CVersion:         credential.W3CVersion().String(),
		Issuer:             credential.Issuer(),
		Subject:            credential.Subject(),
		VerificationMethod: proof.VerificationMethod,
		CurrentlyValid:     &valid,
	})
}

// verifyDocument checks the proof of doc against --public-key, or against the
// key resolved from its verification method.
func verifyDocument(ctx context.Context, doc integrity.Document) error {
	if value := conf.GetString(flagPublicKey); value != "" {
		publicKey, err := parsePublicKey(value)
		if err != nil {
			return err
		}
		return integrity.NewVerifier(integrity.WithLogger(logger)).Verify(ctx, doc, publicKey)
	}

	cfg := resolverConfig()
	logger.Debug("resolving verification method", zap.String("resolverURL", cfg.ResolverURL))
	return integrity.NewVerifier(cfg.VerifierOptions(logger)...).Verify(ctx, doc, nil)
}

// parseCredential accepts the JSON form and the compact form of a credential.
func parseCredential(data []byte) (*dtg.Credential, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		return dtg.Parse(trimmed)
	}
	return dtg.ParseCompact(string(trimmed))
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// parsePublicKey accepts a publicKeyMultibase multikey or a hex encoded key.
func parsePublicKey(value string) ([]byte, error) {
	if strings.HasPrefix(value, "z") {
		_, publicKey, err := crypto.DecodeMultikey(value)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", flagPublicKey, err)
		}
		return publicKey, nil
	}

	publicKey, err := crypto.DecodeHex(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flagPublicKey, err)
	}
	return publicKey, nil
}
