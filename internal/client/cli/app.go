package cli

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dmitrijs2005/photovault/internal/client/api"
	"github.com/dmitrijs2005/photovault/internal/client/config"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/photovault/internal/client/services"
	"github.com/dmitrijs2005/photovault/internal/client/store"
	"github.com/dmitrijs2005/photovault/internal/logging"
)

// App holds the wired client core plus the session state the REPL works
// on: the last synced collection and file sets.
type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	client      api.Client
	keys        *services.KeyService
	collections services.CollectionService
	files       services.FileService
	favorites   services.FavoritesService
	downloads   services.DownloadService

	collectionSet []models.Collection
	fileSet       []models.File

	reader *bufio.Reader
}

// NewApp opens the local store and, when a previous session left its
// account material behind, rebuilds the services so only the passphrase
// is needed to unlock.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := store.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &App{config: c, log: log, db: db, reader: bufio.NewReader(os.Stdin)}

	repo := metadata.NewSQLiteRepository(db)
	token, err := repo.Get(ctx, metadata.KeyAuthToken)
	if err != nil {
		return nil, err
	}
	if token != nil {
		if err := a.buildServices(ctx, string(token)); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// buildServices constructs the API client and the service graph from the
// persisted account material.
func (a *App) buildServices(ctx context.Context, token string) error {
	repo := metadata.NewSQLiteRepository(a.db)

	rawID, err := repo.Get(ctx, metadata.KeyUserID)
	if err != nil {
		return err
	}
	rawAttrs, err := repo.Get(ctx, metadata.KeyKeyAttributes)
	if err != nil {
		return err
	}
	if rawID == nil || rawAttrs == nil {
		return fmt.Errorf("account material missing, run login first")
	}

	userID, err := strconv.ParseInt(string(rawID), 10, 64)
	if err != nil {
		return fmt.Errorf("parse stored user id: %w", err)
	}
	var attrs models.KeyAttributes
	if err := json.Unmarshal(rawAttrs, &attrs); err != nil {
		return fmt.Errorf("parse stored key attributes: %w", err)
	}

	a.client = api.NewHTTPClient(a.config.APIEndpoint, token, a.config.RequestTimeout)
	a.keys = services.NewKeyService(userID, attrs)
	a.collections = services.NewCollectionService(a.client, a.keys, a.db, a.log)
	a.files = services.NewFileService(a.client, a.keys, a.db, a.config.PageSize, a.log)
	a.favorites = services.NewFavoritesService(a.client, a.keys, a.collections, a.db, a.log)

	downloads, err := services.NewDownloadService(a.client, a.config.CachePath, a.log)
	if err != nil {
		return err
	}
	a.downloads = downloads
	return nil
}

// requireSession rejects commands that need an unlocked session.
func (a *App) requireSession() error {
	if !a.isLoggedIn() {
		err := errors.New("not logged in")
		log.Println(err.Error())
		return err
	}
	return nil
}

func (a *App) isLoggedIn() bool {
	if a.keys == nil {
		return false
	}
	_, err := a.keys.MasterKey()
	return err == nil
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return "locked"
	}
	return fmt.Sprintf("%d collections, %d files", len(a.collectionSet), len(a.fileSet))
}

// Run starts the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	printlnFn("Welcome to photovault CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) close() {
	if a.downloads != nil {
		if err := a.downloads.Close(); err != nil {
			a.log.Error(context.Background(), "close downloads", "error", err)
		}
	}
	if a.keys != nil {
		a.keys.Close()
	}
	if a.client != nil {
		_ = a.client.Close()
	}
	_ = a.db.Close()
}
