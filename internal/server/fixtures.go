package server

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mithrel/docman/pkg/api"
)

// Fixtures is the YAML document accepted by `docman stub-server --seed`.
//
//	documents:
//	  - major_head: HR
//	    minor_head: Policy
//	    document_date: 05-03-2024
//	    uploaded_by: alice
//	    tags: [{tag_name: urgent}]
type Fixtures struct {
	Documents []api.DocumentRecord `yaml:"documents"`
}

func DecodeFixtures(r io.Reader) (Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return fx, nil
}

// LoadFixtures reads path and seeds s with its documents.
func (s *Server) LoadFixtures(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	fx, err := DecodeFixtures(f)
	if err != nil {
		return 0, err
	}
	s.Seed(fx.Documents...)
	return len(fx.Documents), nil
}
