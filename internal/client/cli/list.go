package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dmitrijs2005/photovault/internal/client/services"
)

func (a *App) List(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := a.loadLocalSets(ctx); err != nil {
		return err
	}

	summaries := services.CollectionsWithLatestFile(a.collectionSet, a.fileSet, a.keys.UserID())
	headers := make(map[int64]string, len(summaries))
	for _, s := range summaries {
		if s.LatestFile != nil {
			headers[s.Collection.ID] = s.LatestFile.Info.Title
		}
	}

	for _, c := range a.collectionSet {
		line := fmt.Sprintf("%8d  %-10s  %s", c.ID, c.Type, c.Name)
		if title, ok := headers[c.ID]; ok {
			line += fmt.Sprintf("  (latest: %s)", title)
		}
		printlnFn(line)
	}
	return nil
}

func (a *App) Files(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := a.loadLocalSets(ctx); err != nil {
		return err
	}

	favs, err := a.favorites.FavoriteFileIDs(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	for _, f := range a.fileSet {
		marker := " "
		if _, ok := favs[f.ID]; ok {
			marker = "*"
		}
		created := time.UnixMicro(f.Info.CreationTime).Format("2006-01-02 15:04")
		printlnFn(fmt.Sprintf("%s %8d  %s  %s", marker, f.ID, created, f.Info.Title))
	}
	return nil
}

func (a *App) Favs(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	favs, err := a.favorites.FavoriteFileIDs(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	for id := range favs {
		printlnFn(fmt.Sprintf("%8d", id))
	}
	return nil
}

// loadLocalSets fills the session sets from the local store when a sync
// has not run yet this session.
func (a *App) loadLocalSets(ctx context.Context) error {
	if len(a.collectionSet) == 0 {
		local, err := a.collections.Local(ctx)
		if err != nil {
			log.Println(err.Error())
			return err
		}
		a.collectionSet = local
	}
	if len(a.fileSet) == 0 {
		local, err := a.files.Local(ctx)
		if err != nil {
			log.Println(err.Error())
			return err
		}
		a.fileSet = local
	}
	return nil
}
