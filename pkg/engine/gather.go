package engine

import (
	"errors"
	"fmt"

	"mercator-hq/dsm/pkg/model"
	"mercator-hq/dsm/pkg/resolver"
)

// call runs the resolver named by n's source.
func (ev *evaluator) call(n *model.Node, dn model.DN, current any) (resolver.Result, error) {
	src := n.Source
	if src == nil {
		return resolver.Result{}, model.InvalidModel(dn, "missing 'source'")
	}
	if src.Type == "" {
		return resolver.Result{}, model.InvalidModel(dn, "missing 'type' on source")
	}
	fn, ok := ev.engine.resolvers.Lookup(src.Type)
	if !ok {
		return resolver.Result{}, model.InvalidModel(dn, "unknown source type %q", src.Type)
	}

	res, err := fn(ev.ctx, &resolver.Request{
		Params:  src.Params,
		Node:    n,
		DN:      dn,
		Inputs:  ev.inputs,
		Current: current,
	})
	if err != nil {
		return resolver.Result{}, ev.resolverError(src.Type, dn, err)
	}
	return res, nil
}

// single resolves n as one value and applies its postformat.
func (ev *evaluator) single(n *model.Node, dn model.DN, current any) (any, error) {
	res, err := ev.call(n, dn, current)
	if err != nil {
		return nil, err
	}
	v, err := res.Single()
	if err != nil {
		return nil, ev.resolverError(n.Source.Type, dn, err)
	}
	return ev.engine.pipeline.Apply(n.Source, dn, v)
}

// each resolves n as a stream and calls fn for every admitted, postformatted
// item.
func (ev *evaluator) each(n *model.Node, dn model.DN, current any, fn func(item any) error) error {
	res, err := ev.call(n, dn, current)
	if err != nil {
		return err
	}
	stream, err := res.Iter(dn)
	if err != nil {
		return err
	}

	for {
		if err := ev.ctx.Err(); err != nil {
			return fmt.Errorf("evaluation stopped at dn %s: %w", dn, err)
		}
		item, ok, err := stream.Next()
		if err != nil {
			return ev.resolverError(n.Source.Type, dn, err)
		}
		if !ok {
			return nil
		}

		admit, err := ev.engine.pipeline.Admit(n.Source, dn, item)
		if err != nil {
			return err
		}
		if !admit {
			continue
		}
		v, err := ev.engine.pipeline.Apply(n.Source, dn, item)
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

// resolverError scopes a resolver error to dn and records it.
func (ev *evaluator) resolverError(name string, dn model.DN, err error) error {
	var me *model.Error
	if !errors.As(err, &me) {
		me = model.ResolutionFailure(dn, err, "source %s failed", name)
		err = me
	}
	if ev.engine.recorder != nil {
		ev.engine.recorder.RecordResolverError(name, me.Kind)
	}
	ev.engine.logger.DebugContext(ev.ctx, "resolver failed",
		"source", name,
		"dn", dn.String(),
		"error", err,
	)
	return err
}
