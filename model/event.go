package model

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed event.yaml
var defaultEventYAML []byte

// EventInfo describes the event attendees register for.
type EventInfo struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Date        string         `yaml:"date"`
	Hours       string         `yaml:"hours"`
	Venue       string         `yaml:"venue"`
	Activities  []ActivityInfo `yaml:"activities"`
}

type ActivityInfo struct {
	Tag         string `yaml:"tag"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// DefaultEventInfo returns the catalog bundled with the binary.
func DefaultEventInfo() (EventInfo, error) {
	return LoadEventInfo(bytes.NewReader(defaultEventYAML))
}

// LoadEventInfo decodes a YAML catalog and checks every activity tag against
// the known vocabulary.
func LoadEventInfo(r io.Reader) (EventInfo, error) {
	var info EventInfo
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&info); err != nil {
		return EventInfo{}, fmt.Errorf("error decoding event catalog: %w", err)
	}
	if info.Name == "" {
		return EventInfo{}, fmt.Errorf("event catalog has no name")
	}
	seen := make(map[string]bool, len(info.Activities))
	for _, a := range info.Activities {
		if _, ok := ParseActivity(a.Tag); !ok {
			return EventInfo{}, fmt.Errorf("event catalog: %w: %q", ErrUnknownActivity, a.Tag)
		}
		if seen[a.Tag] {
			return EventInfo{}, fmt.Errorf("event catalog: duplicate activity %q", a.Tag)
		}
		seen[a.Tag] = true
	}
	return info, nil
}

// Activity looks up the catalog entry for a.
func (e EventInfo) Activity(a Activity) (ActivityInfo, bool) {
	for _, info := range e.Activities {
		if info.Tag == a.Tag() {
			return info, true
		}
	}
	return ActivityInfo{}, false
}

// ActivityTitle falls back to the wire value when the catalog has no entry.
func (e EventInfo) ActivityTitle(a Activity) string {
	if info, ok := e.Activity(a); ok && info.Title != "" {
		return info.Title
	}
	return string(a)
}
