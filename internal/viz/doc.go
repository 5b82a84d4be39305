// Package viz renders hard-disk runs in the terminal.
//
//   - [Canvas]: Braille pixel canvas, 2x4 sub-pixels per cell
//   - [DrawBox]: the container and its disks on a canvas
//   - [EnergyChart], [SpeedHistogram]: asciigraph plots of stored runs
//   - [Model]: Bubble Tea live view that steps a driver
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from a fresh layout
//	+/-   - More/fewer events per frame
//	T     - Cycle colour themes
//	Q     - Quit
package viz
