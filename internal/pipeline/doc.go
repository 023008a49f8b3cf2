// Package pipeline orchestrates text detection across a project's pages.
//
// A Job handles one page end to end: preprocess, engine call, coordinate
// rescale, filtering, merging. The Coordinator runs jobs strictly
// sequentially, assigns global row numbers, streams each page's regions
// into the project store as soon as they exist, and supports cooperative
// stop between stages. Pipeline and engine failures abort the whole batch;
// individually malformed regions are skipped and their siblings kept.
package pipeline
