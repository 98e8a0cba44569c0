package dataset

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultURL is the canonical CIFAR-10 binary archive.
const DefaultURL = "https://www.cs.toronto.edu/~kriz/cifar-10-binary.tar.gz"

// Present reports whether all batch files already exist under dir.
func Present(dir string) bool {
	for _, name := range append(append([]string{}, trainFiles...), testFile) {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// Download fetches the archive from url and extracts the batch files into
// dir. It is a no-op when the files are already present.
func Download(ctx context.Context, url, dir string) error {
	if Present(dir) {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	if err := extractArchive(resp.Body, dir); err != nil {
		return fmt.Errorf("extract %s: %w", url, err)
	}
	if !Present(dir) {
		return fmt.Errorf("archive did not contain all batch files")
	}
	return nil
}
