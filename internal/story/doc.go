// Package story defines the narrative model shared by the continuity store,
// the generation workflow and the generator adapters.
//
// A chapter is one generated unit: a scene background plus an ordered list of
// script lines, each attributed to a role and tagged with an emotion. The
// background and emotion vocabularies are closed sets; values outside them
// are rejected by the parsers in this package rather than passed through.
//
// Generator output crosses into the system as JSON and is checked against the
// CUE schema embedded in chapter.cue before it is decoded (see ValidateJSON).
package story
