// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the handbook TUI.
//
// # Components
//
//   - ChatViewport: scrollable transcript with PinToBottom and ObserveTop
//   - MessageBubble, MessageList: transcript entries and action chips
//   - Header: title bar with transparent and opaque states
//   - ThinkingIndicator: spinner for pending replies
//   - StatusBar: status, notices and key hints
//
// # Scroll synchronization
//
// PinToBottom returns a debounced command; the PinMsg it produces must be
// passed back to HandlePin, which ignores superseded requests:
//
//	case components.PinMsg:
//	    m.viewport.HandlePin(msg)
//	    return m, m.viewport.ObserveTop(threshold)
package components
