package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/medicine-shop/logging"
	"golang.org/x/text/encoding/charmap"
)

const maxCatalogSize = 32 << 20

// Loader reads the catalog from a local JSON file or an http(s) URL
type Loader struct {
	Source string
	Client *http.Client
}

// NewLoader returns a Loader for source with a bounded HTTP client
func NewLoader(source string) *Loader {
	return &Loader{
		Source: source,
		Client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Load returns the medicines from the source. A missing local file yields
// an empty catalog rather than an error.
func (l *Loader) Load(ctx context.Context) ([]Medicine, error) {
	raw, err := l.read(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Catalog file not found, serving an empty catalog", "source", l.Source)
		return []Medicine{}, nil
	}
	if err != nil {
		return nil, err
	}

	medicines, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", l.Source, err)
	}
	return medicines, nil
}

func (l *Loader) read(ctx context.Context) ([]byte, error) {
	if strings.HasPrefix(l.Source, "http://") || strings.HasPrefix(l.Source, "https://") {
		return l.download(ctx)
	}

	f, err := os.Open(l.Source)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close catalog file", "error", err)
		}
	}()

	return io.ReadAll(io.LimitReader(f, maxCatalogSize))
}

func (l *Loader) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", l.Source, err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", l.Source, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: unexpected status %d", l.Source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// Decode parses a JSON array of medicines. Latin-1 input is converted to
// UTF-8 first; entries without a name are dropped.
func Decode(raw []byte) ([]Medicine, error) {
	if !utf8.Valid(raw) {
		converted, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to convert from ISO-8859-1: %w", err)
		}
		raw = converted
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	var medicines []Medicine
	if err := json.Unmarshal(raw, &medicines); err != nil {
		return nil, err
	}

	kept := medicines[:0]
	for _, m := range medicines {
		if strings.TrimSpace(m.Name) == "" {
			logging.Debug("Skipping catalog entry without a name")
			continue
		}
		if m.Price.IsNegative() {
			logging.Warn("Skipping catalog entry with a negative price", "name", m.Name)
			continue
		}
		kept = append(kept, m)
	}

	if kept == nil {
		kept = []Medicine{}
	}
	return kept, nil
}
