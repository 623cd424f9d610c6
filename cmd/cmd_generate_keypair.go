package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/pkg/crypto"
	"github.com/spf13/cobra"
)

type generateKeypairCmdOptions struct {
	Path string
}

func NewGenerateKeypairCommand() *cobra.Command {
	opts := &generateKeypairCmdOptions{}

	cmd := &cobra.Command{
		Use:   "generate-keypair",
		Short: "Generate new ed25519 keypair for signing operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateKeypairHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Path, "path", "/data/keys", `Path to save to key pair file`)

	return cmd
}

func generateKeypairHandler(opts *generateKeypairCmdOptions, _ *cobra.Command, _ []string) error {
	fmt.Printf("Generating key pair\n")
	signer, err := crypto.Generate()
	if err != nil {
		return errors.Wrap(errs.SomethingWentWrong, "generate keypair")
	}

	fmt.Printf("Public key: %s\n", hex.EncodeToString(signer.PublicKey()))
	fmt.Printf("Address: %s\n", signer.Address())
	err = os.MkdirAll(opts.Path, 0o755)
	if err != nil {
		return errors.Wrap(errs.SomethingWentWrong, "create directory")
	}

	privateKeyPath := path.Join(opts.Path, "priv.key")

	_, err = os.Stat(privateKeyPath)
	if err == nil {
		fmt.Printf("Existing private key found at %s\n[WARNING] THE EXISTING PRIVATE KEY WILL BE LOST\nType [replace] to replace existing private key: ", privateKeyPath)
		var ans string
		fmt.Scanln(&ans)
		if ans != "replace" {
			fmt.Printf("Keypair generation aborted\n")
			return nil
		}
	}

	err = os.WriteFile(privateKeyPath, []byte(signer.Seed()), 0o644)
	if err != nil {
		return errors.Wrap(err, "write private key file")
	}
	fmt.Printf("Private key saved at %s\n", privateKeyPath)

	publicKeyPath := path.Join(opts.Path, "pub.key")
	err = os.WriteFile(publicKeyPath, []byte(hex.EncodeToString(signer.PublicKey())), 0o644)
	if err != nil {
		return errors.Wrap(errs.SomethingWentWrong, "write public key file")
	}
	fmt.Printf("Public key saved at %s\n", publicKeyPath)

	addressPath := path.Join(opts.Path, "address.txt")
	err = os.WriteFile(addressPath, []byte(signer.Address()), 0o644)
	if err != nil {
		return errors.Wrap(errs.SomethingWentWrong, "write address file")
	}
	fmt.Printf("Address saved at %s\n", addressPath)
	return nil
}
