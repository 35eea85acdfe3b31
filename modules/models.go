package modules

import (
	"fmt"

	"go-modular/dsp"
	"go-modular/rack"
)

// Model describes a module type the host can instantiate
type Model struct {
	Slug string
	Name string
	New  func(rnd dsp.Source) rack.Processor
}

// Models contains every available module, keyed by slug
var Models = map[string]Model{
	"klok": {
		Slug: "klok",
		Name: "Klok",
		New:  func(dsp.Source) rack.Processor { return NewKlok() },
	},
	"secu": {
		Slug: "secu",
		Name: "Secu",
		New:  func(rnd dsp.Source) rack.Processor { return NewSecu(rnd) },
	},
	"babum": {
		Slug: "babum",
		Name: "BaBum",
		New:  func(rnd dsp.Source) rack.Processor { return NewBaBum(rnd) },
	},
	"scener": {
		Slug: "scener",
		Name: "Scener",
		New:  func(dsp.Source) rack.Processor { return NewScener() },
	},
	"distroi": {
		Slug: "distroi",
		Name: "Distroi",
		New:  func(rnd dsp.Source) rack.Processor { return NewDistroi(rnd) },
	},
}

// ModelSlugs returns the slugs in registration order
func ModelSlugs() []string {
	return []string{"klok", "secu", "babum", "scener", "distroi"}
}

// New creates a module by slug
func New(slug string, rnd dsp.Source) (rack.Processor, error) {
	model, ok := Models[slug]
	if !ok {
		return nil, fmt.Errorf("unknown module %q", slug)
	}
	return model.New(rnd), nil
}
