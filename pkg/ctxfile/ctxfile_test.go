package ctxfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neurodesk/vltemplate/pkg/engine"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	want := engine.Context{
		"title": engine.StringValue("Report"),
		"items": engine.ListValue{engine.StringValue("a"), engine.StringValue("b")},
		"show":  engine.BoolValue(true),
	}
	tests := []struct {
		name    string
		file    string
		content string
		want    engine.Context
	}{
		{
			name:    "json",
			file:    "ctx.json",
			content: `{"title": "Report", "items": ["a", "b"], "show": true}`,
			want:    want,
		},
		{
			name:    "yaml",
			file:    "ctx.yaml",
			content: "title: Report\nitems:\n  - a\n  - b\nshow: true\n",
			want:    want,
		},
		{
			name:    "yml",
			file:    "ctx.YML",
			content: "title: Report\nitems: [a, b]\nshow: true\n",
			want:    want,
		},
		{
			name: "starlark",
			file: "ctx.star",
			content: `
title = "Report"
items = ["a", "b"]
show = len(items) == 2
_scratch = "ignored"
`,
			want: want,
		},
		{
			name:    "json numbers",
			file:    "n.json",
			content: `{"n": 2, "f": 1.5}`,
			want:    engine.Context{"n": engine.FloatValue(2), "f": engine.FloatValue(1.5)},
		},
		{
			name:    "yaml numbers",
			file:    "n.yaml",
			content: "n: 2\nf: 1.5\n",
			want:    engine.Context{"n": engine.IntValue(2), "f": engine.FloatValue(1.5)},
		},
		{
			name:    "empty json",
			file:    "empty.json",
			content: "  \n",
			want:    engine.Context{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeFile(t, tt.file, tt.content), nil, nil)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("context mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "ctx.toml", "a = 1"},
		{"invalid json", "ctx.json", "{"},
		{"json array", "ctx.json", "[1, 2]"},
		{"yaml list", "ctx.yaml", "- a\n- b\n"},
		{"starlark error", "ctx.star", "x = 1 +"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.file, tt.content), nil, nil); err == nil {
				t.Fatal("expected an error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil, nil); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadAllLayersFiles(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data.yaml")
	script := filepath.Join(dir, "derive.star")
	override := filepath.Join(dir, "override.json")
	for path, content := range map[string]string{
		data:     "title: Report\nitems: [a, b]\n",
		script:   "count = len(items)\nheading = title + \" (\" + str(count) + \")\"\n",
		override: `{"title": "Final"}`,
	} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := LoadAll([]string{data, script, override}, nil)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	want := engine.Context{
		"title":   engine.StringValue("Final"),
		"items":   engine.ListValue{engine.StringValue("a"), engine.StringValue("b")},
		"count":   engine.IntValue(2),
		"heading": engine.StringValue("Report (2)"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadAll([]string{script}, nil); err == nil {
		t.Error("expected an error when the script's inputs are missing")
	}
}

func TestParse(t *testing.T) {
	ctx, err := Parse([]byte(`{"text": "hello"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := engine.Compile(`<div>{{text}}</div>`, ctx)
	if err != nil || out != `<div>hello</div>` {
		t.Fatalf("got %q, %v", out, err)
	}
	if _, err := Parse([]byte(`["not", "a", "mapping"]`)); err == nil {
		t.Fatal("expected an error for a non-object document")
	}
}
