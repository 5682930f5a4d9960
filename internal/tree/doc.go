// Package tree implements the goal/step tree operations: locating steps,
// copy-on-write structural mutations, sibling ordering and goal list
// reordering. Nothing here performs I/O or reads the clock; callers pass
// the current time and an id source in.
package tree
