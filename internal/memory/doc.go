// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package memory holds the bounded conversation log.
//
// The log is an ordered list of completed user/assistant pairs, capped
// at a configured maximum; the oldest pair is evicted when a new one
// would push the log past the cap, so length stays even and bounded.
// The system prompt lives beside the log, never inside it, and is
// prepended when the context for a request is assembled.
//
// The whole state (system prompt, history, session start time) round
// trips through a JSON snapshot on disk for persistence across runs.
package memory
