package langid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Two pretrained model variants are supported: the richer 218-language
// model (preferred) and the legacy 176-language model.
const (
	modelDirName = "models"

	largeModelFile = "lid218e.bin"
	largeModelURL  = "https://dl.fbaipublicfiles.com/nllb/lid/lid218e.bin"

	legacyModelFile = "lid.176.bin"
	legacyModelURL  = "https://dl.fbaipublicfiles.com/fasttext/supervised-models/lid.176.bin"
)

// EnsureModel guarantees the selected classifier model exists under
// dataDir/models and returns its path. The model is downloaded at most once
// and treated as immutable once present. Download failures are fatal; there
// is no retry.
func EnsureModel(ctx context.Context, client *http.Client, dataDir string, preferLarge bool) (string, error) {
	name, url := legacyModelFile, legacyModelURL
	if preferLarge {
		name, url = largeModelFile, largeModelURL
	}
	path := filepath.Join(dataDir, modelDirName, name)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, nil
	}
	if err := download(ctx, client, url, path); err != nil {
		return "", fmt.Errorf("download classifier model %s: %w", name, err)
	}
	return path, nil
}

func download(ctx context.Context, client *http.Client, url, dest string) error {
	if client == nil {
		client = http.DefaultClient
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build model request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch model: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch model: unexpected status %d", resp.StatusCode)
	}

	tmp := fmt.Sprintf("%s.tmp-%d", dest, os.Getpid())
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write model file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize model file: %w", err)
	}
	return nil
}
