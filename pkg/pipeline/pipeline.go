package pipeline

import (
	"github.com/spf13/cast"

	"mercator-hq/dsm/pkg/model"
)

// Pipeline couples the filter and postformat registries.
type Pipeline struct {
	Filters     *FilterRegistry
	Postformats *PostformatRegistry
}

// New returns a pipeline holding the built-in filters and transforms.
func New() *Pipeline {
	return &Pipeline{
		Filters:     NewFilterRegistry(),
		Postformats: NewPostformatRegistry(),
	}
}

// Admit runs the descriptor's filter on one streamed item.
func (p *Pipeline) Admit(src *model.Source, dn model.DN, item any) (bool, error) {
	name := src.FilterType
	if name == "" {
		name = FilterDefault
	}
	filter, ok := p.Filters.Lookup(name)
	if !ok {
		return false, model.InvalidModel(dn, "unknown filter %q on source %s", name, src.Type)
	}
	admit, err := filter(item, src.FilterArgs)
	if err != nil {
		return false, model.ResolutionFailure(dn, err, "filter %s failed", name)
	}
	return admit, nil
}

// Apply runs the descriptor's postformat on a value. On failure the raw
// value is kept when "fail-silent" is set, and a configured "default" is
// returned otherwise; the postformat's own default wins over the source's.
func (p *Pipeline) Apply(src *model.Source, dn model.DN, item any) (any, error) {
	if src.Postformat == nil {
		return item, nil
	}
	pf := src.Postformat
	transform, ok := p.Postformats.Lookup(pf.Type)
	if !ok {
		return nil, model.InvalidModel(dn, "unknown postformat %q on source %s", pf.Type, src.Type)
	}

	out, err := transform(item, pf.Args)
	if err == nil {
		return out, nil
	}
	if failSilent(pf.Args) || failSilent(src.Params) {
		return item, nil
	}
	if v, ok := pf.Args["default"]; ok {
		return v, nil
	}
	if src.HasDefault {
		return src.Default, nil
	}
	return nil, model.PostformatFailure(dn, err, "postformat %s failed", pf.Type)
}

// HasFilter reports whether a filter is registered under name.
func (p *Pipeline) HasFilter(name string) bool {
	return p.Filters.Has(name)
}

// HasPostformat reports whether a transform is registered under name.
func (p *Pipeline) HasPostformat(name string) bool {
	return p.Postformats.Has(name)
}

func failSilent(args map[string]any) bool {
	v, ok := args["fail-silent"]
	if !ok {
		return false
	}
	b, err := cast.ToBoolE(v)
	return err == nil && b
}
