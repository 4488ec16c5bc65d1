// Package policyfile reads and writes caller-supplied policy tables as YAML.
//
//	entries:
//	  - op: Rotate
//	    min: 0
//	    max: 30
package policyfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ds124wfegd/randaug/internal/augment"
	"gopkg.in/yaml.v3"
)

type document struct {
	Entries []entry `yaml:"entries"`
}

type entry struct {
	Op  string  `yaml:"op"`
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Decode parses and validates a policy table.
func Decode(r io.Reader) (augment.Table, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return augment.Table{}, fmt.Errorf("failed to decode policy: %w", err)
	}

	entries := make([]augment.Entry, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		op, err := augment.ParseOp(e.Op)
		if err != nil {
			return augment.Table{}, fmt.Errorf("policy entry %d: %w", i, err)
		}
		entries = append(entries, augment.Entry{Op: op, Min: e.Min, Max: e.Max})
	}

	table := augment.NewTable(entries...)
	if err := augment.Check(table); err != nil {
		return augment.Table{}, err
	}
	return table, nil
}

// Load reads a policy table from path.
func Load(path string) (augment.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return augment.Table{}, err
	}
	defer file.Close()

	return Decode(file)
}

// Encode writes t in the format Decode reads.
func Encode(w io.Writer, t augment.Table) error {
	doc := document{Entries: make([]entry, 0, t.Len())}
	for _, e := range t.Entries() {
		doc.Entries = append(doc.Entries, entry{Op: e.Op.String(), Min: e.Min, Max: e.Max})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func Marshal(t augment.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
