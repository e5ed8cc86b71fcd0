// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the interactive command system for the
// chat loop. Input that matches a registered command name (exit,
// memory, volume, ...) is executed against the session; anything else
// is treated as a question for the model.
package commands
