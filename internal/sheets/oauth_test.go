package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour).Round(time.Second)}

	require.NoError(t, SaveToken(path, token))
	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.AccessToken)
	assert.Equal(t, "r", loaded.RefreshToken)
	assert.True(t, loaded.Expiry.Equal(token.Expiry))

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()

	t.Run("valid saved token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "saved", Expiry: time.Now().Add(time.Hour)}))

		src, err := TokenSource(ctx, OAuth2Config{ClientID: "c", ClientSecret: "s", TokenFile: path}, "")
		require.NoError(t, err)
		token, err := src.Token()
		require.NoError(t, err)
		assert.Equal(t, "saved", token.AccessToken)
	})

	t.Run("expired token is refreshed and saved", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
		}))
		defer srv.Close()

		path := filepath.Join(t.TempDir(), "token.json")
		require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "old", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)}))

		cfg := OAuth2Config{
			ClientID:     "c",
			ClientSecret: "s",
			TokenFile:    path,
			Endpoint:     &oauth2.Endpoint{TokenURL: srv.URL, AuthURL: srv.URL},
		}
		src, err := TokenSource(ctx, cfg, "")
		require.NoError(t, err)

		token, err := src.Token()
		require.NoError(t, err)
		assert.Equal(t, "fresh", token.AccessToken)

		saved, err := LoadToken(path)
		require.NoError(t, err)
		assert.Equal(t, "fresh", saved.AccessToken)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := TokenSource(ctx, OAuth2Config{TokenFile: filepath.Join(t.TempDir(), "none.json")}, "")
		assert.Error(t, err)
	})
}
