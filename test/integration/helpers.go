//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	HacPath   string
	RedisAddr string
	NATSURL   string
	Verbose   bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		HacPath:   getHacPath(),
		RedisAddr: os.Getenv("HAC_REDIS_ADDR"),
		NATSURL:   os.Getenv("HAC_NATS_URL"),
		Verbose:   os.Getenv("HAC_VERBOSE") == "true",
	}
}

// getHacPath determines the path to the hac binary
func getHacPath() string {
	if path := os.Getenv("HAC_BINARY_PATH"); path != "" {
		return path
	}

	// Try common locations
	candidates := []string{
		"../../hac",
		"./hac",
		"../hac",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "hac" // Fallback to PATH
}

// SkipIfMissingBinary skips test if the hac binary cannot be found
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.HacPath); err != nil {
		t.Skipf("hac binary not found at %s, skipping integration test", config.HacPath)
	}
}

// CommandRunner runs hac with an isolated HOME and config file
type CommandRunner struct {
	config     *TestConfig
	t          *testing.T
	home       string
	configFile string
}

// NewCommandRunner creates a new command runner. configYAML is written to
// the config file passed with --config.
func NewCommandRunner(t *testing.T, config *TestConfig, configYAML string) *CommandRunner {
	t.Helper()

	home := t.TempDir()
	configFile := filepath.Join(home, "config.yml")

	err := os.WriteFile(configFile, []byte(configYAML), 0o600)
	if err != nil {
		t.Fatalf("writing config: %v", err)
	}

	return &CommandRunner{config: config, t: t, home: home, configFile: configFile}
}

// Run executes a hac command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile, "--no-color"}, args...)

	cmd := exec.Command(runner.config.HacPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+runner.home)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.HacPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// GenerateTestName generates a unique name for test resources
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// UsersAPI is a small route tree served over HTTP that counts requests.
type UsersAPI struct {
	*httptest.Server

	Hits atomic.Int32
}

// NewUsersAPI starts the users API.
func NewUsersAPI(t *testing.T) *UsersAPI {
	t.Helper()

	api := &UsersAPI{}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			api.Hits.Add(1)
			next.ServeHTTP(writer, request)
		})
	})
	router.Get("/users/{id}", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]string{
			"id":     chi.URLParam(request, "id"),
			"cookie": request.Header.Get("Cookie"),
			"auth":   request.Header.Get("Authorization"),
		})
	})
	router.Post("/users", func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]any

		_ = json.NewDecoder(request.Body).Decode(&body)
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(writer).Encode(body)
	})
	router.Put("/users/{id}", func(writer http.ResponseWriter, request *http.Request) {
		_ = request.ParseForm()
		_, _ = writer.Write([]byte(request.PostForm.Get("name")))
	})

	api.Server = httptest.NewServer(router)
	t.Cleanup(api.Close)

	return api
}
