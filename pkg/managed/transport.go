package managed

import (
	"fmt"
	"io"
	"net/http"

	"github.com/fivetwenty-io/hac/pkg/hac"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// leveledLogger adapts hac.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger hac.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues))
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fields(keysAndValues))
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fields(keysAndValues))
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues))
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return out
}

// newRetryClient builds the engine's HTTP client. After the last retry the
// final response is returned as-is instead of an error.
func newRetryClient(config *Config, logger hac.Logger) *retryablehttp.Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
		httpClient.Timeout = config.Timeout
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = httpClient
	client.RetryMax = config.RetryMax
	client.RetryWaitMin = config.RetryWaitMin
	client.RetryWaitMax = config.RetryWaitMax
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if config.Debug {
		client.Logger = leveledLogger{logger: logger}
	} else {
		client.Logger = nil
	}

	return client
}

// drain reads and closes a response body.
func drain(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return data, nil
}
