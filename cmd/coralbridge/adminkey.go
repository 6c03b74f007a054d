package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/coralbridge/internal/security/adminkey"
	"github.com/dropDatabas3/coralbridge/internal/security/secretbox"
)

func newAdminKeyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adminkey",
		Short: "API key de administración",
	}

	hash := &cobra.Command{
		Use:   "hash [key]",
		Short: "Genera el hash argon2id para admin.api_key_hash (lee stdin si no hay argumento)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				key = strings.TrimRight(line, "\r\n")
			}
			phc, err := adminkey.Hash(adminkey.Default, key)
			if err != nil {
				return err
			}
			c.print(map[string]string{"api_key_hash": phc}, func(w io.Writer) { fmt.Fprintln(w, phc) })
			return nil
		},
	}

	cmd.AddCommand(hash)
	return cmd
}

func newSecretboxCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secretbox",
		Short: "Clave para cifrar el token de API en reposo",
	}
	keygen := &cobra.Command{
		Use:   "keygen",
		Short: "Genera una clave nueva para " + secretbox.EnvVar,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := secretbox.GenerateKey()
			if err != nil {
				return err
			}
			c.print(map[string]string{"key": k}, func(w io.Writer) { fmt.Fprintln(w, k) })
			return nil
		},
	}
	cmd.AddCommand(keygen)
	return cmd
}
