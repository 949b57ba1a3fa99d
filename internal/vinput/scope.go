// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vinput

import "io"

// With runs fn with a fresh actor over lines and closes the actor when fn
// returns, including when fn fails or panics.
func With(lines []string, out io.Writer, fn func(*Actor) error) error {
	a := Start(lines, out)
	defer a.Close()
	return fn(a)
}
