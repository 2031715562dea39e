// Package ui holds the lipgloss palette used to style CLI summaries.
//
// Output is plain styled text written after a command finishes; there is no interactive view.
// lipgloss drops colors automatically when the output is not a terminal.
package ui
