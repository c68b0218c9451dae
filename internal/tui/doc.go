// Package tui holds the interactive tensor browser.
//
// The browser follows a Model-View-Controller split:
//
//   - model: application state, key bindings and the navigation engine
//   - view: renders the header, tree, detail panel, overlays and footer
//   - controller: routes Bubble Tea messages and owns the program
//
// Shared pieces live beside them: design holds colors and styles,
// components the reusable header, status bar and panel builders, and utils
// string and number formatting.
//
// # Message Flow
//
//  1. Key presses and window size changes arrive as Bubble Tea messages.
//  2. The controller updates the model and the navigation engine.
//  3. Log records from pkg/logging arrive on a channel and are appended to
//     the activity log (shown with L).
//  4. The view renders the current state; it never mutates the catalog.
package tui
