package corpus

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gleaner/internal/services"
)

// LocalCorpus reads cached corpus files from the data directory.
type LocalCorpus struct {
	root string
}

// NewLocalCorpus returns a reader rooted at dataDir/corpus.
func NewLocalCorpus(dataDir string) *LocalCorpus {
	return &LocalCorpus{root: filepath.Join(dataDir, "corpus")}
}

// Lines streams non-blank lines from the cached corpus file for spec,
// bounded by spec.MaxSentences. The yield callback returns false to stop
// early.
func (l *LocalCorpus) Lines(spec ProcessSpec, yield func(string) (bool, error)) error {
	path := filepath.Join(l.root, fmt.Sprintf("%s_%s.txt", spec.Source, spec.Language))
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrNotFound, "corpus", "open local corpus", path, err)
		}
		return fmt.Errorf("open corpus file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		keepGoing, err := yield(line)
		if err != nil {
			return err
		}
		count++
		if !keepGoing || count >= spec.MaxSentences {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read corpus file: %w", err)
	}
	return nil
}
