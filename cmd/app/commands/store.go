package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/allisson/trustcore/internal/store/backend"
	storeUseCase "github.com/allisson/trustcore/internal/store/usecase"
)

// RunWipeStore destroys every durable record and the session key. It refuses to run
// unless confirmed.
func RunWipeStore(
	ctx context.Context,
	store storeUseCase.EncryptedStore,
	logger *slog.Logger,
	w io.Writer,
	confirmed bool,
) error {
	if !confirmed {
		return fmt.Errorf("wipe-store destroys all stored data: rerun with --yes to confirm")
	}

	if err := store.Wipe(ctx); err != nil {
		return fmt.Errorf("failed to wipe store: %w", err)
	}

	logger.Warn("encrypted store wiped")
	_, err := fmt.Fprintln(w, "Encrypted store wiped")
	return err
}

// RunBackupStore writes an age-encrypted archive of every durable record to out. Records
// stay sealed with the installation key inside the archive.
func RunBackupStore(
	ctx context.Context,
	b backend.Backend,
	logger *slog.Logger,
	w io.Writer,
	out io.Writer,
	recipients []string,
	now time.Time,
) error {
	parsed, err := backend.ParseRecipients(recipients)
	if err != nil {
		return err
	}

	count, err := backend.WriteBackup(ctx, b, out, parsed, now)
	if err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	logger.Info("store backup written",
		slog.String("backend", b.Name()),
		slog.Int("records", count),
		slog.Int("recipients", len(parsed)),
	)
	_, err = fmt.Fprintf(w, "Backed up %d record(s) from the %s backend\n", count, b.Name())
	return err
}

// RunRestoreStore decrypts an archive from in with the identities read from identity and
// writes its records into b.
func RunRestoreStore(
	ctx context.Context,
	b backend.Backend,
	logger *slog.Logger,
	w io.Writer,
	identity io.Reader,
	in io.Reader,
) error {
	identities, err := backend.ParseIdentities(identity)
	if err != nil {
		return err
	}

	count, err := backend.RestoreBackup(ctx, b, in, identities)
	if err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}

	logger.Info("store backup restored", slog.String("backend", b.Name()), slog.Int("records", count))
	_, err = fmt.Fprintf(w, "Restored %d record(s) into the %s backend\n", count, b.Name())
	return err
}
