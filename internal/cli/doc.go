// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the sollama command line surface: flag
// parsing, startup wiring, and the interactive chat loop with line
// editing, history, and styled output.
package cli
