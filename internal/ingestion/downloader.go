package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeovahfialho/sales-analyzer/pkg/logger"
)

type Downloader struct {
	httpClient *http.Client
	workers    int
}

func NewDownloader(workers int) *Downloader {
	if workers <= 0 {
		workers = 1
	}
	return &Downloader{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		workers: workers,
	}
}

// DownloadFile fetches rawURL into outputDir. An existing file with the same
// name is reused.
func (d *Downloader) DownloadFile(ctx context.Context, rawURL, outputDir string) (string, error) {
	filename, err := fileNameFromURL(rawURL)
	if err != nil {
		return "", err
	}
	outputPath := filepath.Join(outputDir, filename)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("erro ao criar diretório: %w", err)
	}

	if _, err := os.Stat(outputPath); err == nil {
		logger.Info("arquivo já existe", zap.String("file", filename))
		return outputPath, nil
	}

	logger.Info("baixando dataset", zap.String("url", rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("erro ao criar request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("erro ao fazer download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code: %d para URL: %s", resp.StatusCode, rawURL)
	}

	tempFile := outputPath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("erro ao criar arquivo: %w", err)
	}

	written, err := io.Copy(file, resp.Body)
	file.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("erro ao salvar arquivo: %w", err)
	}

	if err := os.Rename(tempFile, outputPath); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("erro ao renomear arquivo: %w", err)
	}

	logger.Info("download concluído",
		zap.String("file", filename),
		zap.Float64("mb", float64(written)/(1024*1024)))

	return outputPath, nil
}

// DownloadAll fetches every URL with at most workers downloads in flight.
// Failures are logged and skipped; the paths that succeeded are returned in
// input order.
func (d *Downloader) DownloadAll(ctx context.Context, urls []string, outputDir string) ([]string, []error) {
	paths := make([]string, len(urls))
	errs := make([]error, len(urls))

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, u := range urls {
		g.Go(func() error {
			p, err := d.DownloadFile(ctx, u, outputDir)
			if err != nil {
				errs[i] = fmt.Errorf("erro ao baixar %s: %w", u, err)
				logger.Warn("download falhou", zap.Error(errs[i]))
				return nil
			}
			paths[i] = p
			return nil
		})
	}
	_ = g.Wait()

	var ok []string
	var failed []error
	for i := range urls {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		ok = append(ok, paths[i])
	}
	return ok, failed
}

func fileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url inválida: %q", rawURL)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "dataset.csv"
	}
	return name, nil
}
