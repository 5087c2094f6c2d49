package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/common"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "test-token", 5*time.Second)
}

func TestGetCollections_SendsTokenAndCursor(t *testing.T) {
	var gotToken, gotSince string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(AuthTokenHeaderName)
		gotSince = r.URL.Query().Get("sinceTime")
		require.Equal(t, "/collections", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"collections": []models.Collection{{ID: 1, UpdationTime: 100}},
		})
	})

	got, err := c.GetCollections(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, "test-token", gotToken)
	require.Equal(t, "42", gotSince)
	require.Len(t, got, 1)
	require.Equal(t, int64(100), got[0].UpdationTime)
}

func TestGetCollectionDiff_QueryParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "/collections/diff", r.URL.Path)
		require.Equal(t, "7", q.Get("collectionID"))
		require.Equal(t, "0", q.Get("sinceTime"))
		require.Equal(t, "100", q.Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"diff": []models.File{{ID: 9, CollectionID: 7, UpdationTime: 5}},
		})
	})

	got, err := c.GetCollectionDiff(context.Background(), 7, "0", 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(9), got[0].ID)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, common.ErrNotFound},
		{http.StatusGone, common.ErrNotFound},
		{http.StatusUpgradeRequired, common.ErrStorageFull},
	}
	for _, tc := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := c.GetCollections(context.Background(), "0")
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestNetworkFailure_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := NewHTTPClient(srv.URL, "t", time.Second)

	_, err := c.GetCollections(context.Background(), "0")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestAddFiles_Body(t *testing.T) {
	var got struct {
		CollectionID int64                       `json:"collectionID"`
		Files        []models.CollectionFileItem `json:"files"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/add-files", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := c.AddFiles(context.Background(), 3, []models.CollectionFileItem{
		{ID: 11, EncryptedKey: "ek", KeyDecryptionNonce: "n"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), got.CollectionID)
	require.Len(t, got.Files, 1)
	require.Equal(t, int64(11), got.Files[0].ID)
}

func TestGetPreview_ReturnsRawBytes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/preview/12", r.URL.Path)
		_, _ = w.Write([]byte{0xde, 0xad, 0xbe, 0xef})
	})

	got, err := c.GetPreview(context.Background(), 12)
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, got)
}
