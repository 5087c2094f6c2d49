package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/common"
)

// AuthTokenHeaderName carries the auth token on every request.
const AuthTokenHeaderName = "X-Auth-Token"

// HTTPClient is the concrete Client over the photovault HTTP API.
type HTTPClient struct {
	endpoint string
	token    string
	httpc    *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client bound to the given endpoint and resolved
// auth token. Session/token acquisition happens outside the core.
func NewHTTPClient(endpoint, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		token:    token,
		httpc:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetCollections(ctx context.Context, sinceTime string) ([]models.Collection, error) {
	var out struct {
		Collections []models.Collection `json:"collections"`
	}
	q := url.Values{"sinceTime": {sinceTime}}
	if err := c.getJSON(ctx, "/collections", q, &out); err != nil {
		return nil, fmt.Errorf("get collections: %w", err)
	}
	return out.Collections, nil
}

func (c *HTTPClient) CreateCollection(ctx context.Context, collection models.Collection) (models.Collection, error) {
	var out struct {
		Collection models.Collection `json:"collection"`
	}
	if err := c.postJSON(ctx, "/collections", collection, &out); err != nil {
		return models.Collection{}, fmt.Errorf("create collection: %w", err)
	}
	return out.Collection, nil
}

func (c *HTTPClient) GetCollectionDiff(ctx context.Context, collectionID int64, sinceTime string, limit int) ([]models.File, error) {
	var out struct {
		Diff []models.File `json:"diff"`
	}
	q := url.Values{
		"collectionID": {strconv.FormatInt(collectionID, 10)},
		"sinceTime":    {sinceTime},
		"limit":        {strconv.Itoa(limit)},
	}
	if err := c.getJSON(ctx, "/collections/diff", q, &out); err != nil {
		return nil, fmt.Errorf("get collection diff: %w", err)
	}
	return out.Diff, nil
}

func (c *HTTPClient) AddFiles(ctx context.Context, collectionID int64, files []models.CollectionFileItem) error {
	body := struct {
		CollectionID int64                       `json:"collectionID"`
		Files        []models.CollectionFileItem `json:"files"`
	}{CollectionID: collectionID, Files: files}
	if err := c.postJSON(ctx, "/collections/add-files", body, nil); err != nil {
		return fmt.Errorf("add files: %w", err)
	}
	return nil
}

func (c *HTTPClient) RemoveFiles(ctx context.Context, collectionID int64, fileIDs []int64) error {
	body := struct {
		CollectionID int64   `json:"collectionID"`
		FileIDs      []int64 `json:"fileIDs"`
	}{CollectionID: collectionID, FileIDs: fileIDs}
	if err := c.postJSON(ctx, "/collections/remove-files", body, nil); err != nil {
		return fmt.Errorf("remove files: %w", err)
	}
	return nil
}

func (c *HTTPClient) GetPreview(ctx context.Context, fileID int64) ([]byte, error) {
	data, err := c.getBytes(ctx, fmt.Sprintf("/files/preview/%d", fileID))
	if err != nil {
		return nil, fmt.Errorf("get preview %d: %w", fileID, err)
	}
	return data, nil
}

func (c *HTTPClient) GetFile(ctx context.Context, fileID int64) ([]byte, error) {
	data, err := c.getBytes(ctx, fmt.Sprintf("/files/download/%d", fileID))
	if err != nil {
		return nil, fmt.Errorf("get file %d: %w", fileID, err)
	}
	return data, nil
}

// Close is a no-op for the plain HTTP transport; it exists so engines can
// tear the collaborator down uniformly.
func (c *HTTPClient) Close() error {
	c.httpc.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(AuthTokenHeaderName, c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, mapStatus(resp.StatusCode)
	}
	return resp, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) getBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// mapStatus converts HTTP error statuses into the core's typed errors.
func mapStatus(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound, http.StatusGone:
		return common.ErrNotFound
	case http.StatusUpgradeRequired, http.StatusInsufficientStorage:
		return common.ErrStorageFull
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}
