// pkg/fetch/fetcher.go
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rkeller-lab/deprisk/pkg/config"
	"github.com/rkeller-lab/deprisk/pkg/model"
)

// ModuleTable is one fetched, decoded, and persisted survey module.
type ModuleTable struct {
	Module model.SurveyModule
	Frame  dataframe.DataFrame
	Path   string // location of the persisted CSV
}

// Fetcher downloads per-module survey extracts, decodes them, and persists
// one CSV per module in the raw storage area.
type Fetcher struct {
	client     *http.Client
	baseURL    string
	fileExt    string
	rawDir     string
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewFetcher creates a Fetcher from the application configuration.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:    cfg.BaseURL,
		fileExt:    cfg.FileExt,
		rawDir:     cfg.RawDir(),
		retries:    cfg.RetryAttempts,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
}

// fetchResult carries one module's outcome back from the pool.
type fetchResult struct {
	module model.SurveyModule
	table  ModuleTable
	err    error
}

// FetchAll downloads every module through a bounded worker pool. A module
// that fails after all retries is logged as a warning and recorded on the
// run report; the batch proceeds with whatever modules succeeded. Results
// come back in the configured module order regardless of completion order,
// so the downstream merge layout is reproducible.
func (f *Fetcher) FetchAll(ctx context.Context, modules []model.SurveyModule, workers int, report *model.RunReport) []ModuleTable {
	if workers <= 0 || workers > len(modules) {
		workers = len(modules)
	}

	jobs := make(chan model.SurveyModule)
	results := make(chan fetchResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			logger := f.logger.With(zap.Int("workerID", workerID))
			for m := range jobs {
				table, err := f.FetchModule(ctx, m)
				if err != nil {
					logger.Warn("Module fetch failed",
						zap.String("module", m.Name),
						zap.Error(err))
				}
				select {
				case results <- fetchResult{module: m, table: table, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, m := range modules {
			select {
			case jobs <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	fetched := make(map[string]ModuleTable, len(modules))
	for res := range results {
		if res.err != nil {
			report.MarkFailed(res.module.Name, res.err)
			report.AddWarning(fmt.Sprintf("module %s skipped: %v", res.module.Name, res.err))
			continue
		}
		fetched[res.module.Name] = res.table
		report.MarkFetched(res.module.Name)
	}

	// Reassemble in configured order.
	tables := make([]ModuleTable, 0, len(fetched))
	for _, m := range modules {
		if t, ok := fetched[m.Name]; ok {
			tables = append(tables, t)
		}
	}

	return tables
}

// FetchModule downloads, decodes, and persists a single module, retrying
// transient failures with a fixed delay.
func (f *Fetcher) FetchModule(ctx context.Context, m model.SurveyModule) (ModuleTable, error) {
	jobID := uuid.New().String()
	url := fmt.Sprintf("%s/%s%s", f.baseURL, m.Name, f.fileExt)

	f.logger.Info("Fetching module",
		zap.String("jobID", jobID),
		zap.String("module", m.Name),
		zap.String("url", url))

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.retryDelay):
			case <-ctx.Done():
				return ModuleTable{}, ctx.Err()
			}
			f.logger.Info("Retrying module fetch",
				zap.String("module", m.Name),
				zap.Int("attempt", attempt))
		}

		body, err := f.download(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}

		frame, err := DecodeSAS(bytes.NewReader(body), m.KeyColumn)
		if err != nil {
			// A decode failure will not heal on retry.
			return ModuleTable{}, fmt.Errorf("module %s: %w", m.Name, err)
		}

		path := filepath.Join(f.rawDir, m.Name+".csv")
		if err := WriteCSV(frame, path); err != nil {
			return ModuleTable{}, fmt.Errorf("module %s: %w", m.Name, err)
		}

		f.logger.Info("Module fetched",
			zap.String("module", m.Name),
			zap.Int("rows", frame.Nrow()),
			zap.Int("columns", frame.Ncol()),
			zap.String("path", path))

		return ModuleTable{Module: m, Frame: frame, Path: path}, nil
	}

	return ModuleTable{}, fmt.Errorf("module %s: %w", m.Name, lastErr)
}

// download performs one HTTP GET and returns the response body.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
