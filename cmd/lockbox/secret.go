package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/benaskins/lockbox/internal/audit"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var setCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a secret",
	Long:  "Store a secret. If value is omitted, reads from stdin (useful for piping).",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}
		key := args[0]

		var value string
		if len(args) == 2 {
			value = args[1]
		} else if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Print("Enter secret value: ")
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			fmt.Println()
			value = string(b)
		} else {
			b, err := os.ReadFile("/dev/stdin")
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			value = strings.TrimRight(string(b), "\n")
		}

		if err := facade.SetString(key, value); err != nil {
			return err
		}
		recordAudit(audit.Entry{
			Action:     audit.ActionSecretWrite,
			Key:        key,
			Identifier: facade.Identifier().String(),
		})
		fmt.Printf("Secret %q stored\n", key)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Retrieve a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}
		val, err := facade.String(args[0])
		if err != nil {
			return err
		}
		recordAudit(audit.Entry{
			Action:     audit.ActionSecretRead,
			Key:        args[0],
			Identifier: facade.Identifier().String(),
		})
		fmt.Println(val)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all secret keys in the selected scope",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}
		keys, err := facade.AllKeys()
		if err != nil {
			return err
		}

		if len(keys) == 0 {
			fmt.Println("No secrets stored")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY")
		for _, k := range keys {
			fmt.Fprintln(w, k)
		}
		w.Flush()
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Short:   "Remove a secret",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}
		if err := facade.RemoveKey(args[0]); err != nil {
			return err
		}
		recordAudit(audit.Entry{
			Action:     audit.ActionSecretDelete,
			Key:        args[0],
			Identifier: facade.Identifier().String(),
		})
		fmt.Printf("Secret %q deleted\n", args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every secret in the selected scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}
		if err := facade.RemoveAllKeys(); err != nil {
			return err
		}
		recordAudit(audit.Entry{
			Action:     audit.ActionSecretClear,
			Identifier: facade.Identifier().String(),
		})
		fmt.Println("All secrets removed")
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe whether the keychain is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		facade, err := newFacade()
		if err != nil {
			return err
		}
		if !facade.CanAccessKeychain() {
			return fmt.Errorf("keychain not accessible for %s", facade.Identifier())
		}
		fmt.Println("Keychain accessible")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(checkCmd)
}
