package logger

import (
	"context"
	"os"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

const defaultDataDogTimeout = 5 * time.Second

// DataDogWriter ships every written log line to the DataDog logs intake.
// Lines are sent synchronously; Timeout bounds how long a single write may block.
type DataDogWriter struct {
	api      *datadogV2.LogsApi
	ctx      context.Context
	service  string
	hostname string
	tags     string
	timeout  time.Duration
}

// NewDataDogWriter creates a DataDogWriter from cfg.
// service is used when cfg.ServiceName is empty.
func NewDataDogWriter(cfg DataDog, service string) (*DataDogWriter, error) {
	if cfg.APIKey == "" {
		return nil, ErrDataDogAPIKeyIsEmpty
	}

	if cfg.ServiceName != "" {
		service = cfg.ServiceName
	}

	ctx := context.WithValue(
		context.Background(),
		datadog.ContextAPIKeys,
		map[string]datadog.APIKey{
			"apiKeyAuth": {Key: cfg.APIKey},
		},
	)

	if cfg.Site != "" {
		ctx = context.WithValue(ctx, datadog.ContextServerVariables, map[string]string{
			"site": cfg.Site,
		})
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultDataDogTimeout
	}

	hostname, _ := os.Hostname()

	return &DataDogWriter{
		api:      datadogV2.NewLogsApi(datadog.NewAPIClient(datadog.NewConfiguration())),
		ctx:      ctx,
		service:  service,
		hostname: hostname,
		tags:     cfg.Tags,
		timeout:  timeout,
	}, nil
}

// Write implements io.Writer. p is one JSON encoded zerolog event.
func (w *DataDogWriter) Write(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()

	item := datadogV2.HTTPLogItem{
		Ddsource: datadog.PtrString("zerolog"),
		Hostname: datadog.PtrString(w.hostname),
		Message:  string(p),
		Service:  datadog.PtrString(w.service),
	}

	if w.tags != "" {
		item.Ddtags = datadog.PtrString(w.tags)
	}

	_, resp, err := w.api.SubmitLog(ctx, []datadogV2.HTTPLogItem{item})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	return len(p), nil
}
