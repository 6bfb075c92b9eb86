package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
)

func newHashSecretCommand() *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "hash-secret [secret]",
		Short: "Hash a client or api resource secret for the registry file",
		Long: "Hash a secret for a registry file's secrets[].hash field. The secret is read " +
			"from the first line of stdin when no argument is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret string
			if len(args) == 1 {
				secret = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read secret: %w", err)
				}
				secret = strings.TrimRight(line, "\r\n")
			}
			if secret == "" {
				return errors.New("secret must not be empty")
			}

			var hash string
			switch algorithm {
			case "argon2id":
				h, err := cryptox.HashArgon2(secret)
				if err != nil {
					return err
				}
				hash = h
			case "sha256":
				hash = cryptox.Sha256(secret)
			case "sha512":
				hash = cryptox.Sha512(secret)
			default:
				return fmt.Errorf("unknown algorithm %q (want argon2id, sha256 or sha512)", algorithm)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}

	cmd.Flags().StringVar(&algorithm, "algorithm", "argon2id", "hash algorithm: argon2id, sha256 or sha512")
	return cmd
}
