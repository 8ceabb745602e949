package cmd

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
	verificationmethod "github.com/firstperson-network/go-dtg-credentials/credential/common/verification-method"
	"github.com/firstperson-network/go-dtg-credentials/credential/dtg"
	"github.com/firstperson-network/go-dtg-credentials/credential/integrity"
)

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Runs an issue, sign and verify walkthrough",
	Long: `Generates an issuer did:key, issues a Personhood Credential, signs it,
verifies it and shows that verification with another key fails.`,
	Args: cobra.NoArgs,
	RunE: runExample,
}

func runExample(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	issuer, err := crypto.GenerateEd25519Signer(rand.Reader)
	if err != nil {
		return err
	}
	issuerDID := didOf(issuer.VerificationMethod())
	fmt.Fprintf(out, "Created issuer DID: %s\n\n", issuerDID)

	phc, err := dtg.NewPHC(issuerDID, "did:example:subject", time.Now(), nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Created unsigned Personhood Credential:")
	if err := writeJSON(out, phc); err != nil {
		return err
	}

	proof, err := phc.Sign(ctx, issuer, integrity.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nSigned the PHC:")
	if err := writeJSON(out, proof); err != nil {
		return err
	}

	if err := phc.Verify(ctx, verificationmethod.NewDIDKeyResolver(), integrity.WithLogger(logger)); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nSuccessfully verified the Personhood Credential")

	other, err := crypto.GenerateEd25519Signer(rand.Reader)
	if err != nil {
		return err
	}
	err = phc.VerifyWithPublicKey(ctx, other.PublicKey())
	if !errors.Is(err, dtg.ErrSignatureMismatch) {
		return fmt.Errorf("verification with an unrelated key should fail, got %v", err)
	}
	fmt.Fprintf(out, "Verification with an unrelated key fails: %v\n\n", err)

	fmt.Fprintln(out, "Full Credential:")
	return writeJSON(out, phc)
}
