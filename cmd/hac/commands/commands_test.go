package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests share the global viper instance and do not run in parallel.

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	router := chi.NewRouter()
	router.Get("/users/{id}", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]string{
			"id":   chi.URLParam(request, "id"),
			"page": request.URL.Query().Get("page"),
			"auth": request.Header.Get("Authorization"),
		})
	})
	router.Post("/users", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusCreated)
		_, _ = writer.Write([]byte(`{"created":true}`))
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func setViper(t *testing.T, values map[string]any) {
	t.Helper()

	viper.Reset()

	for key, value := range values {
		viper.Set(key, value)
	}

	t.Cleanup(viper.Reset)
}

func TestCallCommand(t *testing.T) {
	server := newTestServer(t)

	t.Run("select from fetch response", func(t *testing.T) {
		setViper(t, map[string]any{"base_url": server.URL, "token": "secret", "no_color": true})

		out, err := runCommand(t, NewCallCommand(), "users", ":id", "--param", "id=7", "--query", "page=2", "--select", "auth")
		require.NoError(t, err)
		assert.Equal(t, "Bearer secret\n", out)
	})

	t.Run("json output", func(t *testing.T) {
		setViper(t, map[string]any{"base_url": server.URL, "output": "json", "no_color": true})

		out, err := runCommand(t, NewCallCommand(), "users", "--method", "post", "--json", `{"name":"a"}`)
		require.NoError(t, err)

		var decoded callOutput
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, http.StatusCreated, decoded.Status)
		assert.Equal(t, map[string]any{"created": true}, decoded.Body)
	})

	t.Run("managed call", func(t *testing.T) {
		setViper(t, map[string]any{"base_url": server.URL, "no_color": true})

		out, err := runCommand(t, NewCallCommand(), "users", ":id", "--managed", "--param", "id=3", "--cache-for", "1m", "--select", "id")
		require.NoError(t, err)
		assert.Equal(t, "3\n", out)
	})

	t.Run("unsupported method", func(t *testing.T) {
		setViper(t, map[string]any{"base_url": server.URL})

		_, err := runCommand(t, NewCallCommand(), "users", "--method", "purge")
		require.ErrorIs(t, err, ErrUnsupportedMethod)
	})
}

func TestURLCommand(t *testing.T) {
	setViper(t, map[string]any{"base_url": "https://api.example.com"})

	out, err := runCommand(t, NewURLCommand(), "users", ":id", "-p", "id=1", "-q", "page=2")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users/1?page=2\n", out)
}

func TestVersionCommand(t *testing.T) {
	setViper(t, map[string]any{"output": "json"})

	out, err := runCommand(t, NewVersionCommand("1.2.3", "abc", "today"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.2.3","commit":"abc","built":"today"}`, out)
}

func TestConfigShowCommand(t *testing.T) {
	setViper(t, map[string]any{"output": "yaml", "base_url": "https://api.example.com", "token": "abcdefgh"})

	out, err := runCommand(t, NewConfigCommand(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: https://api.example.com")
	assert.Contains(t, out, "token: abcd...")
	assert.NotContains(t, out, "abcdefgh")
}

func TestConfigSetUnknownKey(t *testing.T) {
	setViper(t, nil)

	_, err := runCommand(t, NewConfigCommand(), "set", "bogus", "x")
	require.ErrorIs(t, err, ErrUnknownConfigKey)
}
