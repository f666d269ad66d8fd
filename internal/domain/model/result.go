// Package model contains the tables passed between pipeline stages.
//
// All durations are integer centiseconds. Dates are UTC calendar days
// (midnight) so that they compare and subtract cleanly.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// NoResult is the penalty stored in place of a DNF, DNS or missing time.
// It takes part in every comparison as the worst possible outcome.
const NoResult = 99999

// Round is the ordinal priority of a round, 1 being the final.
type Round int

// Known rounds.
const (
	RoundFinal Round = iota + 1
	RoundSecond
	RoundFirst
	RoundSemiFinal
	RoundQualification
)

var roundByLabel = map[string]Round{
	"Final":               RoundFinal,
	"Second round":        RoundSecond,
	"First round":         RoundFirst,
	"Semi Final":          RoundSemiFinal,
	"Qualification round": RoundQualification,
}

// ParseRound maps a textual round label to its priority.
func ParseRound(label string) (Round, error) {
	r, ok := roundByLabel[strings.TrimSpace(label)]
	if !ok {
		return 0, fmt.Errorf("unknown round label %q", label)
	}
	return r, nil
}

// Label returns the textual label ParseRound accepts for r.
func (r Round) Label() string {
	for label, v := range roundByLabel {
		if v == r {
			return label
		}
	}
	return ""
}

// Valid reports whether r is one of the known rounds.
func (r Round) Valid() bool {
	return r >= RoundFinal && r <= RoundQualification
}

// RawResult is one per-round row as supplied by the upstream table.
type RawResult struct {
	CompetitionID string `json:"competitionId"`
	PersonID      string `json:"personId"`
	Round         string `json:"round"`
	Position      int    `json:"position,omitempty"`
	Best          int    `json:"best"`
	Average       int    `json:"average"`
	Solves        []int  `json:"solves,omitempty"`
}

// Result is a normalized round result. (CompetitionID, PersonID, Round) is unique.
type Result struct {
	CompetitionID string `json:"competitionId"`
	PersonID      string `json:"personId"`
	Round         Round  `json:"round"`
	Best          int    `json:"best"`
	Average       int    `json:"average"`
}

// Key identifies the result within a table.
func (r Result) Key() string {
	return r.CompetitionID + "\x00" + r.PersonID + "\x00" + strconv.Itoa(int(r.Round))
}

// Raw converts r back into the upstream row shape.
func (r Result) Raw() RawResult {
	return RawResult{
		CompetitionID: r.CompetitionID,
		PersonID:      r.PersonID,
		Round:         r.Round.Label(),
		Best:          r.Best,
		Average:       r.Average,
	}
}
