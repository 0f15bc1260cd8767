// Package report writes the merge plan (every duplicate group with its
// canonical choice) as a stream of YAML documents, one per group, so a
// reviewer can audit a dry run before the merge is applied.
package report

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/author-merge/pkg/models"
)

// PlanWriter encodes duplicate groups as they are found.
type PlanWriter struct {
	enc     *yaml.Encoder
	closer  io.Closer
	written int
}

// NewPlanWriter writes to w. Close flushes the encoder but does not close w.
func NewPlanWriter(w io.Writer) *PlanWriter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &PlanWriter{enc: enc}
}

// CreatePlanFile creates (or truncates) path and returns a writer that owns it.
func CreatePlanFile(path string) (*PlanWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create plan file: %w", err)
	}
	pw := NewPlanWriter(f)
	pw.closer = f
	return pw, nil
}

// WriteGroup appends one group as its own YAML document. Its signature matches
// the group callback of the merge service.
func (p *PlanWriter) WriteGroup(g models.DuplicateGroup) error {
	if err := p.enc.Encode(g); err != nil {
		return fmt.Errorf("encode group %q: %w", g.Key, err)
	}
	p.written++
	return nil
}

// Groups returns how many groups have been written.
func (p *PlanWriter) Groups() int {
	return p.written
}

func (p *PlanWriter) Close() error {
	err := p.enc.Close()
	if p.closer != nil {
		if cerr := p.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
