package fasttext

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestParsePrediction(t *testing.T) {
	pred, err := ParsePrediction("__label__kaz_Cyrl 0.98312")
	if err != nil {
		t.Fatalf("ParsePrediction: %v", err)
	}
	if pred.Label != "__label__kaz_Cyrl" {
		t.Errorf("label = %q", pred.Label)
	}
	if pred.Probability != 0.98312 {
		t.Errorf("probability = %v", pred.Probability)
	}
}

func TestParsePredictionMalformed(t *testing.T) {
	for _, line := range []string{"", "__label__kk", "__label__kk notanumber"} {
		if _, err := ParsePrediction(line); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}

func TestNewRejectsMissingBinary(t *testing.T) {
	if _, err := New("definitely-not-a-real-binary-name"); err == nil {
		t.Fatal("expected lookup failure")
	}
}

// fakeFasttext is a shell stand-in that echoes a fixed prediction for every
// input line, mimicking `fasttext predict-prob <model> - 1`.
const fakeFasttext = `#!/bin/sh
while IFS= read -r line; do
  echo "__label__uzn_Latn 0.97"
done
`

func installFakeBinary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fasttext")
	if err := os.WriteFile(path, []byte(fakeFasttext), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessPredictRoundTrip(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	client, err := New(installFakeBinary(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	backend, err := client.Open("/tmp/unused-model.bin")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	proc := backend.(*process)
	defer proc.Close()

	for range 2 {
		pred, err := backend.Predict(context.Background(), "salom dunyo\nqator")
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		if pred.Label != "__label__uzn_Latn" || pred.Probability != 0.97 {
			t.Fatalf("unexpected prediction %+v", pred)
		}
	}
}
