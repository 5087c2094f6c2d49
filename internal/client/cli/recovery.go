package cli

import (
	"context"
	"log"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
)

// RecoveryKey shows the hex recovery key so the user can store it
// somewhere safe.
func (a *App) RecoveryKey(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	recoveryKey, err := a.keys.RecoveryKey()
	if err != nil {
		log.Println(err.Error())
		return err
	}
	defer common.WipeByteArray(recoveryKey)

	printlnFn("Recovery key:", cryptox.ToHex(recoveryKey))
	return nil
}
