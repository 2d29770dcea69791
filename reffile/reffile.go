// Public domain.

// Package reffile writes and reads the standardized reference-file
// container: a self-describing YAML document holding a metadata block,
// an append-only history log, and a tree of serialized coordinate
// transforms and auxiliary tables.
package reffile

import (
	"fmt"
	"os"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// A File is one reference file: metadata, history, and the data tree.
// Tree values may be transform.Transform values, numbers, strings,
// slices, or nested map[string]any trees.
type File struct {
	Meta    Meta
	History []HistoryEntry
	Tree    map[string]any
}

// New starts a reference file with the given metadata and an empty
// tree.
func New(meta Meta) *File {
	return &File{Meta: meta, Tree: make(map[string]any)}
}

// AddHistory appends a history entry stamped with the current time and
// this module's software identification.
func (f *File) AddHistory(description string) {
	sw := Tool
	sw.Author = f.Meta.Author
	f.History = append(f.History, HistoryEntry{
		Description: description,
		Time:        time.Now().UTC(),
		Software:    &sw,
	})
}

// fileDoc is the serialized layout: meta and history blocks first,
// tree entries inline at the top level.
type fileDoc struct {
	Meta    Meta           `yaml:"meta"`
	History []HistoryEntry `yaml:"history,omitempty"`
	Tree    map[string]any `yaml:",inline"`
}

// Write validates the metadata and writes the container atomically:
// the file appears complete or not at all, never partially written.
func (f *File) Write(path string) error {
	if err := f.Meta.Validate(); err != nil {
		return err
	}
	tree, err := encodeTree(f.Tree)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	data, err := yaml.Marshal(fileDoc{Meta: f.Meta, History: f.History, Tree: tree})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Read loads a reference file, reconstructing the transforms in its
// tree.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tree, err := decodeTree(doc.Tree)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Meta: doc.Meta, History: doc.History, Tree: tree}, nil
}
