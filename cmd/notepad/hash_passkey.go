package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/notepad/internal/auth"
)

var hashPasskeyCmd = &cobra.Command{
	Use:   "hash-passkey [passkey]",
	Short: "Print a bcrypt hash for NOTEPAD_PASSKEY_HASH",
	Long:  "Hashes the passkey given as an argument, or the first line of stdin when omitted.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var passkey string
		if len(args) == 1 {
			passkey = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no passkey given")
			}
			passkey = strings.TrimRight(line, "\r\n")
		}

		hash, err := auth.HashPasskey(passkey)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
