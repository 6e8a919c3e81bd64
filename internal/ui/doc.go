// Package ui implements the interactive scan progress view for storviz
// using Bubbletea.
package ui
