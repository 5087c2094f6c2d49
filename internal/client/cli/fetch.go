package cli

import (
	"context"
	"fmt"
	"log"
)

func (a *App) Preview(ctx context.Context, id string) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	f, err := a.findFile(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	data, err := a.downloads.GetPreview(ctx, f)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Preview of %s: %d bytes", f.Info.Title, len(data)))
	return nil
}

func (a *App) Get(ctx context.Context, id string) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	f, err := a.findFile(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	path, err := a.downloads.GetFile(ctx, f)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	printlnFn("Saved to", path)
	return nil
}
