// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with a local
// Ollama server.
//
// The client speaks two endpoints:
//
//   - GET  /api/tags      model catalog
//   - POST /api/generate  completion, blocking or as a newline-delimited
//     JSON chunk stream
//
// Conversation context is flattened into Ollama's plain prompt format
// (System:/Human:/Assistant: blocks) before each request. The package
// also hosts ExtractSentences, the incremental segmenter that the
// streaming narration pipeline runs over accumulated text.
package ollama
