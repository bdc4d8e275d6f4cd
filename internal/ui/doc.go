// Package ui renders the helpers' terminal output: device listings,
// interactive pickers for ambiguous names, and shared colors and symbols.
//
// Everything interactive draws on stderr so a command's stdout stays clean
// for pipes, and refuses to run without a terminal on both ends.
package ui
