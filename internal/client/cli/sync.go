package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/dmitrijs2005/photovault/internal/client/services"
)

// Sync runs a full sync round: the collection set first, then each
// collection's file change feed. Progress is printed per applied page so
// large first syncs stay visible.
func (a *App) Sync(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	collections, err := a.collections.Sync(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	a.collectionSet = collections

	files, err := a.files.Sync(ctx, collections, "", func(s services.Snapshot) error {
		a.fileSet = s.Files
		printlnFn(fmt.Sprintf("... %d files", len(s.Files)))
		return nil
	})
	if err != nil {
		log.Println(err.Error())
		return err
	}
	a.fileSet = files

	printlnFn(fmt.Sprintf("Synced %d collections, %d files", len(collections), len(files)))
	return nil
}
