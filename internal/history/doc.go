// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history records raw input lines entered at the rigsh prompt.
//
// A History is either in-memory (NewMemory) or backed by a SQLite file
// (Open) so lines survive restarts. Both keep a bounded number of entries, dropping
// the oldest first.
package history
