// Package models defines the domain types shared by the porter packages.
//
// Source adapters produce [Track] values; a track is immutable once exported
// and is identified for matching purposes by its normalized (title, artist)
// pair plus duration. [CandidateMatch] values are transient, produced per
// search call and owned by the resolver only for the duration of a single
// resolution. [ResolutionResult] tags each outcome with the track's original
// index so final playlist order can be reconstructed regardless of the order
// concurrent resolutions complete in. [TransferReport] is created once per
// transfer run and is immutable after the run completes.
package models
