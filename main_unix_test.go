// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build unix

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigsh/internal/shell"
)

// interruptingReader raises SIGINT in this process before its first read.
type interruptingReader struct {
	r    io.Reader
	sent bool
}

func (ir *interruptingReader) Read(p []byte) (int, error) {
	if !ir.sent {
		ir.sent = true
		if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
			return 0, err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return ir.r.Read(p)
}

func TestSessionSurvivesInterrupt(t *testing.T) {
	if shell.IsInteractive() {
		t.Skip("stdin is a terminal")
	}
	isolate(t)

	var stdout, stderr bytes.Buffer
	stdin := &interruptingReader{r: strings.NewReader("echo after\nquit\n")}
	code := execute(context.Background(), []string{"--no-history", "--verbose"}, stdin, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "rigsh> after\n")
	assert.Contains(t, stderr.String(), "INTERRUPT | ignored")
}
