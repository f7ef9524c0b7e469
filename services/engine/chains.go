// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/reasongraph/services/reasoning"
)

// defaultRecentLimit is how many chains RecentChains lists when the
// caller passes no limit.
const defaultRecentLimit = 5

// ExportChain renders a stored chain as json, text, markdown, or
// html. An unknown chain id returns empty output and no error; an
// unknown format returns reasoning.ErrUnsupportedFormat.
func (e *Engine) ExportChain(chainID, format string) (string, error) {
	chain := e.ec.Chains.Get(chainID)
	if chain == nil {
		return "", nil
	}

	if strings.EqualFold(format, "json") {
		data, err := reasoning.ExportJSON(chain)
		if err != nil {
			return "", fmt.Errorf("exporting chain %s: %w", chainID, err)
		}
		return string(data), nil
	}
	return reasoning.Visualize(chain, format)
}

// RecentChains lists stored chains newest first. A non-positive limit
// lists the default five.
func (e *Engine) RecentChains(limit int) []reasoning.ChainSummary {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	summaries := e.ec.Chains.List()
	for i, j := 0, len(summaries)-1; i < j; i, j = i+1, j-1 {
		summaries[i], summaries[j] = summaries[j], summaries[i]
	}
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries
}
