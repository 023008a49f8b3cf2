// Package project holds the canonical state of a translation project: the
// page images, every text region ever detected or hand-drawn, the named
// translation profiles layered over the recognized text, and the zip
// archive format everything persists to.
//
// Regions are identified by row number. Batch runs assign consecutive
// integers; manually inserted regions get fractional numbers between their
// neighbors so nothing is ever renumbered. Deletion is soft: a deleted
// region disappears from views and exports but keeps its row number
// forever.
package project
