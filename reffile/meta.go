// Public domain.

package reffile

import (
	"fmt"
	"time"
)

// Software identifies the program that produced a history entry.
type Software struct {
	Name     string `yaml:"name"`
	Author   string `yaml:"author,omitempty"`
	Homepage string `yaml:"homepage,omitempty"`
	Version  string `yaml:"version,omitempty"`
}

// Tool is the producing-software identification recorded in history
// entries written by this module.
var Tool = Software{
	Name:    "refconv",
	Version: "0.1.0",
}

// A HistoryEntry is one line of the append-only history log carried in
// every reference file.
type HistoryEntry struct {
	Description string    `yaml:"description"`
	Time        time.Time `yaml:"time"`
	Software    *Software `yaml:"software,omitempty"`
}

// Instrument identifies the instrument configuration a reference file
// applies to.
type Instrument struct {
	Name     string `yaml:"name"`
	Detector string `yaml:"detector,omitempty"`
	Filter   string `yaml:"filter,omitempty"`
	Pupil    string `yaml:"pupil,omitempty"`
	Grating  string `yaml:"grating,omitempty"`
}

// Meta is the standardized metadata block required in every reference
// file.
type Meta struct {
	Author      string     `yaml:"author"`
	Description string     `yaml:"description"`
	ExpType     string     `yaml:"exposure_type"`
	Filename    string     `yaml:"filename,omitempty"`
	Instrument  Instrument `yaml:"instrument"`
	ModelType   string     `yaml:"model_type,omitempty"`
	Pedigree    string     `yaml:"pedigree"`
	Reftype     string     `yaml:"reftype"`
	Telescope   string     `yaml:"telescope"`
	Title       string     `yaml:"title"`
	Useafter    string     `yaml:"useafter"`
	InputUnits  string     `yaml:"input_units,omitempty"`
	OutputUnits string     `yaml:"output_units,omitempty"`
}

// NewMeta fills the common reference file keywords.  Pedigree and
// telescope take their standard values; exposure type may be a real
// mode, "N/A", or "ANY".
func NewMeta(reftype, title, description, expType, useafter, author, filename string) Meta {
	return Meta{
		Author:      author,
		Description: description,
		ExpType:     expType,
		Filename:    filename,
		Pedigree:    "GROUND",
		Reftype:     reftype,
		Telescope:   "JWST",
		Title:       title,
		Useafter:    useafter,
	}
}

// Validate checks the required metadata keys.
func (m *Meta) Validate() error {
	required := []struct{ name, v string }{
		{"author", m.Author},
		{"description", m.Description},
		{"exposure_type", m.ExpType},
		{"instrument name", m.Instrument.Name},
		{"pedigree", m.Pedigree},
		{"reftype", m.Reftype},
		{"telescope", m.Telescope},
		{"title", m.Title},
		{"useafter", m.Useafter},
	}
	for _, r := range required {
		if r.v == "" {
			return fmt.Errorf("reference file metadata: missing %s", r.name)
		}
	}
	return nil
}
