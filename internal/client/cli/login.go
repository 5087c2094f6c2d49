package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/dmitrijs2005/photovault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
)

// Login stores the account material on first use, then unlocks the
// session with the passphrase. The auth token, user id, and key
// attributes come out of the account setup flow; the passphrase never
// leaves this process.
func (a *App) Login(ctx context.Context) error {
	if a.keys == nil {
		if err := a.promptAccount(ctx); err != nil {
			log.Printf("error: %v", err)
			return err
		}
	}

	passphrase, err := GetPassword(os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	defer common.WipeByteArray(passphrase)

	if err := a.keys.UnlockWithPassphrase(passphrase); err != nil {
		if errors.Is(err, common.ErrWrongPassphrase) {
			log.Printf("Wrong passphrase")
		} else {
			log.Printf("Unlock unsuccessfull: %s", err.Error())
		}
		return err
	}

	log.Printf("Session unlocked")
	return nil
}

// Recover unlocks the session with the hex recovery key instead of the
// passphrase.
func (a *App) Recover(ctx context.Context) error {
	if a.keys == nil {
		if err := a.promptAccount(ctx); err != nil {
			log.Printf("error: %v", err)
			return err
		}
	}

	encoded, err := GetSimpleText(a.reader, "-Enter recovery key (hex)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	recoveryKey, err := cryptox.FromHex(encoded)
	if err != nil {
		log.Printf("Invalid recovery key: %s", err.Error())
		return err
	}
	defer common.WipeByteArray(recoveryKey)

	if err := a.keys.UnlockWithRecoveryKey(recoveryKey); err != nil {
		log.Printf("Recovery unsuccessfull: %s", err.Error())
		return err
	}

	log.Printf("Session unlocked with recovery key")
	return nil
}

// Logout locks the session. Synced data stays in the local store.
func (a *App) Logout(ctx context.Context) error {
	if a.keys != nil {
		a.keys.Close()
	}
	a.collectionSet = nil
	a.fileSet = nil
	log.Printf("Session locked")
	return nil
}

// promptAccount collects and persists the account material, then builds
// the service graph from it.
func (a *App) promptAccount(ctx context.Context) error {
	userID, err := GetSimpleText(a.reader, "-Enter user id", os.Stdout)
	if err != nil {
		return err
	}
	if _, err := strconv.ParseInt(userID, 10, 64); err != nil {
		return err
	}
	token, err := GetSimpleText(a.reader, "-Enter auth token", os.Stdout)
	if err != nil {
		return err
	}
	attrs, err := GetSimpleText(a.reader, "-Enter key attributes (JSON)", os.Stdout)
	if err != nil {
		return err
	}

	repo := metadata.NewSQLiteRepository(a.db)
	if err := repo.Set(ctx, metadata.KeyUserID, []byte(userID)); err != nil {
		return err
	}
	if err := repo.Set(ctx, metadata.KeyAuthToken, []byte(token)); err != nil {
		return err
	}
	if err := repo.Set(ctx, metadata.KeyKeyAttributes, []byte(attrs)); err != nil {
		return err
	}

	return a.buildServices(ctx, token)
}
