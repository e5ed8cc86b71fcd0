// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for sollama: crash-safe
// file writes used by the memory snapshot and config layers, and
// width-aware string truncation for terminal output.
package util
