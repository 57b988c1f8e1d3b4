package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/convertly-go/internal/domain"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected string
	}{
		{
			name:     "ffmpeg banner",
			output:   "ffmpeg version 7.1.1 Copyright (c) 2000-2025 the FFmpeg developers\nbuilt with gcc 14.2",
			expected: "7.1.1",
		},
		{
			name:     "imagemagick banner",
			output:   "Version: ImageMagick 7.1.1-43 Q16-HDRI x86_64\nCopyright: (C) 1999 ImageMagick Studio LLC",
			expected: "7.1.1",
		},
		{
			name:     "pandoc banner",
			output:   "pandoc 3.6.2\nFeatures: +server +lua",
			expected: "3.6.2",
		},
		{
			name:     "libreoffice banner",
			output:   "LibreOffice 24.8.4.2 480(Build:2)",
			expected: "24.8.4.2",
		},
		{
			name:     "version only on later line is ignored",
			output:   "some tool\nversion 1.2.3",
			expected: "",
		},
		{
			name:     "no version at all",
			output:   "usage: tool [options]",
			expected: "",
		},
		{
			name:     "empty output",
			output:   "",
			expected: "",
		},
		{
			name:     "bare major version is not a version",
			output:   "tool 7",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseVersion(tt.output))
		})
	}
}

func TestQueryStatus_PrefersToolsDir(t *testing.T) {
	toolsDir := t.TempDir()

	// A fake managed binary; content does not matter for the probe
	managed := filepath.Join(toolsDir, "ffmpeg")
	require.NoError(t, os.WriteFile(managed, []byte("#!/bin/sh\n"), 0755))

	checker := NewExecStatusChecker(toolsDir, nil)
	engines := []domain.Engine{
		{Name: domain.EngineFFmpeg, Command: "ffmpeg"},
		{Name: domain.EnginePandoc, Command: "definitely-not-a-real-binary"},
	}

	status, err := checker.QueryStatus(context.Background(), engines)
	require.NoError(t, err)

	assert.True(t, status[domain.EngineFFmpeg].Available)
	assert.Equal(t, managed, status[domain.EngineFFmpeg].Path)

	// Missing binary is a normal result, not an error
	assert.False(t, status[domain.EnginePandoc].Available)
	assert.Empty(t, status[domain.EnginePandoc].Path)
}

func TestQueryStatus_IgnoresNonExecutable(t *testing.T) {
	toolsDir := t.TempDir()

	// Present but not executable: must not count as installed
	require.NoError(t, os.WriteFile(filepath.Join(toolsDir, "unique-test-tool"), []byte("data"), 0644))

	checker := NewExecStatusChecker(toolsDir, nil)
	status, err := checker.QueryStatus(context.Background(), []domain.Engine{
		{Name: "tool", Command: "unique-test-tool"},
	})
	require.NoError(t, err)
	assert.False(t, status["tool"].Available)
}

func TestQueryStatus_CancelledContext(t *testing.T) {
	checker := NewExecStatusChecker(t.TempDir(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := checker.QueryStatus(ctx, []domain.Engine{{Name: "x", Command: "x"}})
	assert.Error(t, err)
}
