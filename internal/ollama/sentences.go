// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"regexp"
	"strings"
)

// sentenceEndings matches one or more terminators followed by optional
// whitespace. The whitespace is consumed with the sentence so the
// remainder starts clean.
var sentenceEndings = regexp.MustCompile(`[.!?]+[\s\n]*`)

// ExtractSentences splits accumulated text into the complete sentences
// found so far and the unterminated tail.
//
// The function is pure and idempotent: calling it again on the same
// buffer yields the same split, and trailing partial text is always
// preserved in the remainder, never discarded. This is the incremental
// parsing primitive the streaming narration pipeline is built on.
func ExtractSentences(buffer string) (sentences []string, remainder string) {
	matches := sentenceEndings.FindAllStringIndex(buffer, -1)

	lastEnd := 0
	for _, m := range matches {
		sentence := strings.TrimSpace(buffer[lastEnd:m[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		lastEnd = m[1]
	}

	remainder = strings.TrimSpace(buffer[lastEnd:])
	return sentences, remainder
}
