// Package datafile loads live variable values from a local YAML (or JSON)
// file and keeps a store in step with it.
//
// A datafile looks like this:
//
//	revision: 3
//	variables:
//	  myKey: VarA
//	  showBanner: true
//
// Scalar values of any type are stored as their string form; the resolver
// coerces them back to the type each key declares.
package datafile

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/flagkit/flagkit/store"
)

// Datafile is a parsed set of live variable values.
type Datafile struct {
	// Revision identifies this version of the file. Zero means unversioned.
	Revision  int64
	Variables map[string]string
}

type rawDatafile struct {
	Revision  int64          `yaml:"revision"`
	Variables map[string]any `yaml:"variables"`
}

// Parse decodes a datafile. Nested values are rejected.
func Parse(data []byte) (Datafile, error) {
	var raw rawDatafile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Datafile{}, errors.Wrap(err, "decoding datafile")
	}
	df := Datafile{
		Revision:  raw.Revision,
		Variables: make(map[string]string, len(raw.Variables)),
	}
	for id, v := range raw.Variables {
		switch v.(type) {
		case map[string]any, []any:
			return Datafile{}, errors.Errorf("variable %q: nested values are not supported", id)
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return Datafile{}, errors.Wrapf(err, "variable %q", id)
		}
		df.Variables[id] = s
	}
	return df, nil
}

// Load reads and parses the datafile at path.
func Load(path string) (Datafile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Datafile{}, errors.Wrap(err, "reading datafile")
	}
	df, err := Parse(data)
	if err != nil {
		return Datafile{}, errors.Wrapf(err, "%s", path)
	}
	return df, nil
}

// Apply replaces the contents of r with the datafile's variables.
func (df Datafile) Apply(r store.Replacer) {
	r.Replace(df.Variables)
}
