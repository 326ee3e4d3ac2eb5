package main

import (
	"errors"
	"fmt"

	"github.com/benaskins/lockbox"
	"github.com/benaskins/lockbox/internal/audit"
	"github.com/spf13/cobra"
)

var (
	flagFromIdentifier       string
	flagFromAccessibility    string
	flagFromCloud            bool
	flagFromAccessGroup      string
	flagFromAlways           bool
	flagFromAlwaysThisDevice bool
	flagKeepSource           bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move secrets from another keychain scope into the selected one",
	Long: `Move every secret matching a source scope into the selected scope.

The source is either another facade (--from-identifier, with the matching
--from-* scope flags) or one of the retired "always" accessibility levels
(--from-always, --from-always-this-device-only). Source items are removed
after a successful copy unless --keep-source is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		destination, err := newFacade()
		if err != nil {
			return err
		}
		remove := !flagKeepSource

		var sourceDesc string
		switch {
		case flagFromAlways:
			sourceDesc = "accessibility=always"
			err = destination.MigrateFromAlwaysAccessible(remove)
		case flagFromAlwaysThisDevice:
			sourceDesc = "accessibility=always-this-device-only"
			err = destination.MigrateFromAlwaysAccessibleThisDeviceOnly(remove)
		case flagFromIdentifier != "":
			var source *lockbox.Facade
			source, err = sourceFacade()
			if err != nil {
				return err
			}
			sourceDesc = source.Descriptor()
			err = destination.MigrateFrom(source, remove)
		default:
			return errors.New("specify --from-identifier, --from-always, or --from-always-this-device-only")
		}

		entry := audit.Entry{
			Action:     audit.ActionSecretMigrate,
			Identifier: destination.Identifier().String(),
			Source:     sourceDesc,
		}
		if err != nil {
			entry.Error = err.Error()
			recordAudit(entry)
			return err
		}
		recordAudit(entry)
		fmt.Println("Migration complete")
		return nil
	},
}

func sourceFacade() (*lockbox.Facade, error) {
	level := flagFromAccessibility
	if level == "" {
		level = "when-unlocked"
	}
	accessibility, err := lockbox.ParseAccessibility(level)
	if err != nil {
		return nil, err
	}

	switch {
	case flagFromAccessGroup != "" && flagFromCloud:
		return lockbox.NewCloudSharedAccessGroup(flagFromAccessGroup, flagFromIdentifier, accessibility)
	case flagFromAccessGroup != "":
		return lockbox.NewSharedAccessGroup(flagFromAccessGroup, flagFromIdentifier, accessibility)
	case flagFromCloud:
		return lockbox.NewCloudSynchronized(flagFromIdentifier, accessibility)
	default:
		return lockbox.New(flagFromIdentifier, accessibility)
	}
}

func init() {
	migrateCmd.Flags().StringVar(&flagFromIdentifier, "from-identifier", "", "source namespace")
	migrateCmd.Flags().StringVar(&flagFromAccessibility, "from-accessibility", "", `source accessibility level (default "when-unlocked")`)
	migrateCmd.Flags().BoolVar(&flagFromCloud, "from-cloud", false, "source is in the cloud-synchronized keychain")
	migrateCmd.Flags().StringVar(&flagFromAccessGroup, "from-access-group", "", "source shared access group")
	migrateCmd.Flags().BoolVar(&flagFromAlways, "from-always", false, `migrate items stored under the retired "always" level`)
	migrateCmd.Flags().BoolVar(&flagFromAlwaysThisDevice, "from-always-this-device-only", false, `migrate items stored under the retired "always, this device only" level`)
	migrateCmd.Flags().BoolVar(&flagKeepSource, "keep-source", false, "keep source items after copying")
	rootCmd.AddCommand(migrateCmd)
}
