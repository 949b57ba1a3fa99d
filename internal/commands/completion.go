// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	completionTTL      = 5 * time.Second
	completionCapacity = 256
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for command names.
type Completer struct {
	registry *Registry
	cache    *ttlcache.Cache[string, []string]
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{
		registry: registry,
		cache: ttlcache.New[string, []string](
			ttlcache.WithTTL[string, []string](completionTTL),
			ttlcache.WithCapacity[string, []string](completionCapacity),
		),
	}
}

// Complete returns full-line completions for the given input, in the shape
// line editors expect. Only the command name position is completed.
func (c *Completer) Complete(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	partial := GetPartialCommand(line)
	if partial == "" {
		return nil
	}
	lead := line[:len(line)-len(partial)]

	names := c.CompleteName(partial)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, lead+name)
	}
	return out
}

// CompleteName returns command names for a partial name: case-insensitive
// prefix matches first, then fuzzy matches ranked by distance.
func (c *Completer) CompleteName(partial string) []string {
	if c.registry == nil {
		return nil
	}
	if item := c.cache.Get(partial); item != nil {
		return item.Value()
	}

	names := c.registry.Names()
	lower := strings.ToLower(partial)

	var prefixed []string
	seen := make(map[string]bool)
	for _, name := range names {
		if strings.HasPrefix(strings.ToLower(name), lower) {
			prefixed = append(prefixed, name)
			seen[name] = true
		}
	}

	ranks := fuzzy.RankFindFold(partial, names)
	sort.Sort(ranks)

	result := prefixed
	for _, rank := range ranks {
		if seen[rank.Target] {
			continue
		}
		seen[rank.Target] = true
		result = append(result, rank.Target)
	}

	c.cache.Set(partial, result, ttlcache.DefaultTTL)
	return result
}
