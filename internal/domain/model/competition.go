package model

import (
	"regexp"
	"slices"
	"time"
)

var trailingYear = regexp.MustCompile(`\d{4}$`)

// Competition is the metadata row of one competition.
type Competition struct {
	ID             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	City           string    `json:"city,omitempty"`
	Country        string    `json:"country,omitempty"`
	Events         []string  `json:"events"`
	DateFrom       time.Time `json:"date_from"`
	IsCanceled     bool      `json:"isCanceled"`
	IsChampionship bool      `json:"isChampionship"`
}

// HasEvent reports whether the competition lists the event code.
func (c Competition) HasEvent(code string) bool {
	return slices.Contains(c.Events, code)
}

// SeriesID is the id without its trailing year, e.g. "WC2023" -> "WC".
func (c Competition) SeriesID() string {
	return trailingYear.ReplaceAllString(c.ID, "")
}

// Person is a participant with the country used for national rankings.
type Person struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Country string `json:"country,omitempty"`
}
