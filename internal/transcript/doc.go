// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript writes a plain-text log of the conversation, one
// numbered question/answer pair per exchange. Logging is best-effort:
// write failures are reported on stderr and never interrupt the
// session.
package transcript
