package stream

import (
	"compress/bzip2"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"gleaner/internal/corpus"
	"gleaner/internal/services"
)

func collect(t *testing.T, it corpus.Iterator) []string {
	t.Helper()
	defer it.Close()
	var out []string
	for {
		sentence, err := it.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, sentence)
	}
}

func TestOscarStreamerPagesThroughRows(t *testing.T) {
	pages := map[string][]string{
		"0": {"birinchi matn", "ikkinchi matn"},
		"2": {"uchinchi matn"},
	}
	var sawAuth, sawConfig string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		sawConfig = r.URL.Query().Get("config")
		rows := []map[string]any{}
		for _, text := range pages[r.URL.Query().Get("offset")] {
			rows = append(rows, map[string]any{"row": map[string]any{"text": text}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"rows": rows})
	}))
	defer server.Close()

	streamer := NewOscarStreamer(server.Client(), server.URL, "oscar-corpus/OSCAR-2301", "secret-token", 2, nil)
	it, err := streamer.Stream(context.Background(), corpus.Language("uz"))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	got := collect(t, it)
	want := []string{"birinchi matn", "ikkinchi matn", "uchinchi matn"}
	if len(got) != len(want) {
		t.Fatalf("got %d sentences, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
	if sawAuth != "Bearer secret-token" {
		t.Errorf("unexpected Authorization header %q", sawAuth)
	}
	if sawConfig != "uz" {
		t.Errorf("unexpected config parameter %q", sawConfig)
	}
}

func TestOscarStreamerSkipsRowsWithoutText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"rows": []map[string]any{
			{"row": map[string]any{"text": "kept"}},
			{"row": map[string]any{"text": 42}},
			{"row": map[string]any{"other": "field"}},
			{"row": map[string]any{"text": "   "}},
		}})
	}))
	defer server.Close()

	streamer := NewOscarStreamer(server.Client(), server.URL, "ds", "", 100, nil)
	it, err := streamer.Stream(context.Background(), corpus.Language("kk"))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	got := collect(t, it)
	if len(got) != 1 || got[0] != "kept" {
		t.Fatalf("expected only the valid row, got %v", got)
	}
}

func TestOscarStreamerFailsFastOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	streamer := NewOscarStreamer(server.Client(), server.URL, "ds", "", 10, nil)
	_, err := streamer.Stream(context.Background(), corpus.Language("kk"))
	if err == nil {
		t.Fatal("expected error for failing rows request")
	}
	if !errors.Is(err, services.ErrAcquisition) {
		t.Fatalf("expected acquisition error, got %v", err)
	}
}

func TestWikipediaDumpURL(t *testing.T) {
	streamer := NewWikipediaStreamer(nil, "dumps.wikimedia.org", nil)
	got := streamer.DumpURL(corpus.Language("ky"))
	want := "https://dumps.wikimedia.org/kywiki/latest/kywiki-latest-pages-articles.xml.bz2"
	if got != want {
		t.Fatalf("DumpURL = %q, want %q", got, want)
	}
}

const sampleDump = `<mediawiki>
  <page>
    <title>Test</title>
    <revision>
      <text>'''Бишкек''' — Кыргызстандын борбору жана эң чоң шаары. {{Infobox|nonsense}} Шаар [[Чүй өрөөнү|Чүй өрөөнүндө]] жайгашкан!</text>
    </revision>
  </page>
</mediawiki>`

// bzipCompress shells out to the system bzip2 tool since the standard
// library only decompresses.
func bzipCompress(t *testing.T, data string) []byte {
	t.Helper()
	if _, err := exec.LookPath("bzip2"); err != nil {
		t.Skip("bzip2 binary not available")
	}
	cmd := exec.Command("bzip2", "-c")
	cmd.Stdin = strings.NewReader(data)
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("bzip2: %v", err)
	}
	// Sanity check the round trip before handing it to the streamer.
	if _, err := io.ReadAll(bzip2.NewReader(strings.NewReader(string(out)))); err != nil {
		t.Fatalf("bzip2 round trip: %v", err)
	}
	return out
}

func TestWikipediaStreamerYieldsCleanSentences(t *testing.T) {
	compressed := bzipCompress(t, sampleDump)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(compressed)))
		_, _ = w.Write(compressed)
	}))
	defer server.Close()

	host := strings.TrimPrefix(server.URL, "http://")
	streamer := NewWikipediaStreamer(&insecureDoer{}, host, nil)
	it, err := streamer.Stream(context.Background(), corpus.Language("ky"))
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	got := collect(t, it)
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %v", got)
	}
	for _, sentence := range got {
		if strings.ContainsAny(sentence, "{}[]<>") {
			t.Errorf("markup leaked into sentence %q", sentence)
		}
	}
	if !strings.Contains(got[1], "Чүй өрөөнүндө") {
		t.Errorf("link label lost: %q", got[1])
	}
}

func TestWikipediaStreamerFailsOnMissingDump(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	host := strings.TrimPrefix(server.URL, "http://")
	streamer := NewWikipediaStreamer(&insecureDoer{}, host, nil)
	if _, err := streamer.Stream(context.Background(), corpus.Language("kk")); err == nil {
		t.Fatal("expected error for missing dump")
	}
}

// insecureDoer downgrades the fixed https dump URL to plain http so the
// httptest server can serve it.
type insecureDoer struct{}

func (d *insecureDoer) Do(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	return http.DefaultClient.Do(req)
}

func TestCleanWikiMarkup(t *testing.T) {
	in := "{{Template|x}}The '''quick''' [[brown fox|fox]] jumped. <ref>cite</ref>See [http://example.com the site] too."
	got := CleanWikiMarkup(in)
	if strings.Contains(got, "{{") || strings.Contains(got, "[[") || strings.Contains(got, "<ref") {
		t.Fatalf("markup remained: %q", got)
	}
	if !strings.Contains(got, "fox jumped") {
		t.Fatalf("link label lost: %q", got)
	}
	if !strings.Contains(got, "the site") {
		t.Fatalf("external link label lost: %q", got)
	}
}

func TestCleanWikiMarkupKeepsEscapedLiterals(t *testing.T) {
	got := CleanWikiMarkup("The tag &lt;b&gt; means bold. <b>Real markup</b> goes away.")
	if !strings.Contains(got, "<b> means bold") {
		t.Fatalf("escaped literal lost: %q", got)
	}
	if strings.Contains(got, "<b>Real") || strings.Contains(got, "</b>") {
		t.Fatalf("real markup remained: %q", got)
	}
}

func TestSplitSentencesEmitsEveryNonEmptySegment(t *testing.T) {
	got := SplitSentences("Ок! Иә? Жақсы.")
	want := []string{"Ок", "Иә", "Жақсы"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = SplitSentences("Бірінші сөйлем.  . Екінші сөйлем!")
	want = []string{"Бірінші сөйлем", "Екінші сөйлем"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("blank segments should be dropped: expected %v, got %v", want, got)
	}
}
