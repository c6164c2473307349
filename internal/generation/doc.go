// Package generation turns queued work items into concrete recurring
// instances. For each item it loads the definition, decides between a full
// regeneration and a top-up of missing future dates, and drives the pattern
// enumerator under the complexity-derived safe cap and the global horizon.
package generation
