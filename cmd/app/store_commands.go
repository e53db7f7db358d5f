package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/trustcore/cmd/app/commands"
	"github.com/allisson/trustcore/internal/app"
)

func getStoreCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "wipe-store",
			Usage: "Destroy every record in the encrypted store and the session key",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "yes",
					Value: false,
					Usage: "Confirm the wipe",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					store, err := container.EncryptedStore()
					if err != nil {
						return err
					}

					return commands.RunWipeStore(
						ctx,
						store,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.Bool("yes"),
					)
				})
			},
		},
		{
			Name:  "backup-store",
			Usage: "Write an age encrypted archive of the sealed store records",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:     "recipient",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "age X25519 recipient (repeatable)",
				},
				&cli.StringFlag{
					Name:     "output",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Archive file to create",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					b, err := container.StoreBackend()
					if err != nil {
						return err
					}

					out, err := os.OpenFile(cmd.String("output"), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
					if err != nil {
						return fmt.Errorf("failed to create backup file: %w", err)
					}

					runErr := commands.RunBackupStore(
						ctx,
						b,
						container.Logger(),
						commands.DefaultIO().Writer,
						out,
						cmd.StringSlice("recipient"),
						container.Clock().Now(),
					)
					if err := out.Close(); err != nil && runErr == nil {
						runErr = fmt.Errorf("failed to close backup file: %w", err)
					}
					return runErr
				})
			},
		},
		{
			Name:  "restore-store",
			Usage: "Restore sealed store records from an age encrypted archive",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "identity",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "File holding the age identities able to decrypt the archive",
				},
				&cli.StringFlag{
					Name:     "input",
					Required: true,
					Usage:    "Archive file to restore",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					b, err := container.StoreBackend()
					if err != nil {
						return err
					}

					identity, err := os.Open(cmd.String("identity"))
					if err != nil {
						return fmt.Errorf("failed to open identity file: %w", err)
					}
					defer func() { _ = identity.Close() }()

					in, err := os.Open(cmd.String("input"))
					if err != nil {
						return fmt.Errorf("failed to open backup file: %w", err)
					}
					defer func() { _ = in.Close() }()

					return commands.RunRestoreStore(
						ctx,
						b,
						container.Logger(),
						commands.DefaultIO().Writer,
						identity,
						in,
					)
				})
			},
		},
	}
}
