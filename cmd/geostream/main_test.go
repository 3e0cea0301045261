package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const pointsFixture = "../../testdata/point_3.geojson"

func decodeOutput(t *testing.T, out []byte) []string {
	t.Helper()
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(out, &fc); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	var names []string
	for _, f := range fc.Features {
		name, _ := f.Properties["name"].(string)
		names = append(names, name)
	}
	return names
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.geojson")
	if err := os.WriteFile(broken, []byte(`{"features":[}`), 0o644); err != nil {
		t.Fatal(err)
	}
	partial := filepath.Join(dir, "partial.geojson")
	data := `{"features":[{"type":"Feature","properties":{"name":"partial"},"geometry":null},}`
	if err := os.WriteFile(partial, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		opts  func(*Options)
		names string
	}{
		{"stream", func(o *Options) {}, "A,B,C"},
		{"two files", func(o *Options) { o.Args.Files = append(o.Args.Files, pointsFixture) }, "A,B,C,A,B,C"},
		{"bbox", func(o *Options) { o.BBox = "1.5,1.5,9,9" }, "B,C"},
		{"small chunks", func(o *Options) { o.ChunkSize = 3 }, "A,B,C"},
		{"skip broken", func(o *Options) {
			o.Args.Files = append(o.Args.Files, broken)
			o.SkipErrors = true
		}, "A,B,C"},
		{"skip file that fails after a feature", func(o *Options) {
			o.Args.Files = append([]string{partial}, o.Args.Files...)
			o.SkipErrors = true
		}, "A,B,C"},
		{"skip broken with bbox", func(o *Options) {
			o.Args.Files = append([]string{broken}, o.Args.Files...)
			o.SkipErrors = true
			o.BBox = "0,0,1,1"
		}, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{}
			opts.Args.Files = []string{pointsFixture}
			tt.opts(&opts)

			var out bytes.Buffer
			if err := run(context.Background(), opts, &out); err != nil {
				t.Fatalf("run: %v", err)
			}
			if got := strings.Join(decodeOutput(t, out.Bytes()), ","); got != tt.names {
				t.Errorf("names = %q, want %q", got, tt.names)
			}
		})
	}
}

func TestRunNDJSON(t *testing.T) {
	opts := Options{NDJSON: true, Location: true}
	opts.Args.Files = []string{pointsFixture}

	var out bytes.Buffer
	if err := run(context.Background(), opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var f struct {
			Location *struct {
				Offset int64 `json:"offset"`
				Length int64 `json:"length"`
			} `json:"location"`
		}
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if f.Location == nil || f.Location.Length == 0 {
			t.Errorf("line %d: Expected location, got %s", i, line)
		}
	}
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	abs, err := filepath.Abs(pointsFixture)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.yaml")
	cfg := "chunk_size: 5\nworkers: 2\ndatasets:\n  - name: points\n    path: " + abs + "\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := Options{ConfigFile: path, BBox: "2,2,3,3"}
	var out bytes.Buffer
	if err := run(context.Background(), opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Join(decodeOutput(t, out.Bytes()), ","); got != "B,C" {
		t.Errorf("names = %q, want B,C", got)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.geojson")
	if err := os.WriteFile(broken, []byte(`{"features":[}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		opts   Options
		errMsg string
	}{
		{"no files", Options{}, "no input files"},
		{"bad bbox", Options{BBox: "1,2,3"}, "bbox"},
		{"broken file", Options{}, "broken.geojson"},
		{"broken file with bbox", Options{BBox: "0,0,1,1"}, "broken.geojson"},
		{"missing config", Options{ConfigFile: filepath.Join(dir, "nope.yaml")}, "load configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if strings.HasPrefix(tt.name, "broken") || tt.name == "bad bbox" {
				opts.Args.Files = []string{broken}
			}
			err := run(context.Background(), opts, &bytes.Buffer{})
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}
