// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides text-to-speech narration.
//
// An Engine wraps whichever speech synthesizer the host offers (say,
// espeak-ng, espeak or spd-say on Unix, SAPI via PowerShell on
// Windows). ProbeEngine discovers one at startup; when nothing is
// installed the rest of the package degrades to silent no-ops so the
// conversation keeps working without audio.
//
// Speaker runs a background worker that drains a FIFO queue of
// sentences, speaking them one at a time while response text is still
// streaming in. Settings holds the user-adjustable rate, volume, mute
// and voice state shared between the worker and the command loop.
package speech
