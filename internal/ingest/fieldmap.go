package ingest

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadFieldMap reads a YAML mapping of column name to profile field, e.g.
//
//	"Company Name": name
//	HQ: location
func LoadFieldMap(path string) (FieldMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read field map")
	}
	var m FieldMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "ingest: parse field map")
	}
	if m == nil {
		m = FieldMap{}
	}
	return m, nil
}
