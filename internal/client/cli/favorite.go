package cli

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/dmitrijs2005/photovault/internal/client/models"
)

func (a *App) Favorite(ctx context.Context, id string) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	f, err := a.findFile(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	if err := a.favorites.Add(ctx, f); err != nil {
		log.Println(err.Error())
		return err
	}
	printlnFn("Favorited", f.Info.Title)
	return nil
}

func (a *App) Unfavorite(ctx context.Context, id string) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	f, err := a.findFile(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	if err := a.favorites.Remove(ctx, f); err != nil {
		log.Println(err.Error())
		return err
	}
	printlnFn("Unfavorited", f.Info.Title)
	return nil
}

// findFile resolves a user-typed file id against the session file set.
// File keys only exist on the synced in-memory set, so commands that
// need key material require a sync first.
func (a *App) findFile(ctx context.Context, id string) (models.File, error) {
	fileID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return models.File{}, fmt.Errorf("invalid file id %q", id)
	}
	for _, f := range a.fileSet {
		if f.ID == fileID {
			return f, nil
		}
	}
	return models.File{}, fmt.Errorf("file %d not found, run sync first", fileID)
}
