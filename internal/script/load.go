// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package script

import (
	"fmt"
	"os"
	"unicode/utf8"
)

// maxScriptSize bounds how much of a script file is read into memory.
const maxScriptSize = 4 * 1024 * 1024

// FileError reports a script file that could not be read.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("cannot read script %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Load reads and parses the script at path. Read failures are returned as
// *FileError, parse failures as *UnclosedHeredocError.
func Load(path string) ([]Directive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &FileError{Path: path, Err: fmt.Errorf("is a directory")}
	}
	if info.Size() > maxScriptSize {
		return nil, &FileError{Path: path, Err: fmt.Errorf("file too large (%d bytes)", info.Size())}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return nil, &FileError{Path: path, Err: fmt.Errorf("not valid UTF-8")}
	}

	return Parse(string(data))
}
