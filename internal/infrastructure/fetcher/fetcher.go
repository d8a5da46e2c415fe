// Package fetcher downloads the source documents listed in the manifest.
// This is an offline acquisition utility; the retrieval engine only ever
// sees the artifacts built from the downloaded files.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/calyptra/regqa/internal/core/domain"
	"github.com/calyptra/regqa/internal/infrastructure/resilience"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

var oshaFilename = regexp.MustCompile(`(?i)^(osha)(\d{3,5})\.pdf$`)

type Fetcher struct {
	httpClient *http.Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
	outputDir  string
}

// New creates a fetcher writing into outputDir, limited to ratePerSecond
// outbound requests so source hosts are not hammered.
func New(outputDir string, ratePerSecond float64, executor *resilience.Executor) *Fetcher {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		outputDir:  outputDir,
	}
}

// FetchAll downloads every manifest entry that is not already on disk.
// Per-document failures are logged and counted, not fatal: a partial corpus
// still indexes.
func (f *Fetcher) FetchAll(ctx context.Context, documents map[string]domain.SourceMeta) (fetched, failed int, err error) {
	if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create output directory: %w", err)
	}

	for filename, meta := range documents {
		if meta.URL == "" {
			continue
		}
		target := filepath.Join(f.outputDir, filename)
		if _, statErr := os.Stat(target); statErr == nil {
			continue
		}

		if err := f.fetchOne(ctx, meta.URL, target); err != nil {
			slog.Warn("document download failed", "file", filename, "url", meta.URL, "error", err)
			failed++
			continue
		}
		slog.Info("document downloaded", "file", filename)
		fetched++
	}
	return fetched, failed, nil
}

// fetchOne downloads a single document, retrying through the resilience
// executor and falling back to the uppercase filename variant that some
// OSHA publication URLs require.
func (f *Fetcher) fetchOne(ctx context.Context, rawURL, target string) error {
	err := f.download(ctx, rawURL, target)
	if err == nil {
		return nil
	}

	variant, ok := uppercaseVariant(rawURL)
	if !ok {
		return err
	}
	if variantErr := f.download(ctx, variant, target); variantErr == nil {
		return nil
	}
	return err
}

func (f *Fetcher) download(ctx context.Context, rawURL, target string) error {
	return f.executor.Execute(ctx, "fetch document", func(callCtx context.Context) error {
		if err := f.limiter.Wait(callCtx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(callCtx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/pdf,application/octet-stream;q=0.9,*/*;q=0.8")
		req.Header.Set("Referer", refererFor(rawURL))

		resp, err := f.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return &httpStatusError{status: resp.StatusCode, url: rawURL}
		}
		return writeAtomic(target, resp.Body)
	}, classifyFetchError)
}

type httpStatusError struct {
	status int
	url    string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("download %s: status %d", e.url, e.status)
}

func classifyFetchError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.status {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

// uppercaseVariant rewrites osha####.pdf path tails to OSHA####.pdf, a
// casing quirk of the publications host.
func uppercaseVariant(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	dir, last := "", parsed.Path
	if i := strings.LastIndex(parsed.Path, "/"); i >= 0 {
		dir, last = parsed.Path[:i], parsed.Path[i+1:]
	}
	m := oshaFilename.FindStringSubmatch(last)
	if m == nil {
		return "", false
	}
	parsed.Path = dir + "/OSHA" + m[2] + ".pdf"
	return parsed.String(), true
}

func refererFor(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if strings.Contains(strings.ToLower(parsed.Host), "osha.gov") {
		return parsed.Scheme + "://" + parsed.Host + "/publications"
	}
	return parsed.Scheme + "://" + parsed.Host + "/"
}

func writeAtomic(target string, body io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
