// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package archive records completed exchanges in a local SQLite
// database so past conversations stay searchable across sessions.
// The archive is strictly optional: when the database cannot be
// opened the session runs without it.
package archive
