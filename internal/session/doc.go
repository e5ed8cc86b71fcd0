// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates one conversation: it owns the memory,
// the Ollama client, the speaker, the transcript and the archive, and
// runs the question/answer turn flow that ties them together.
//
// The central entry point is Session.ProcessTurn, which sends the
// conversation context to the model, narrates sentences as they arrive
// during streaming, and commits the exchange to memory only when
// generation succeeds.
package session
