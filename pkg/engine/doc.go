// Package engine evaluates a model tree against named input documents.
//
// Three evaluators share one recursion over the model:
//
//   - Detail builds a nested value matching the model's shape.
//   - Items emits one flat record per scalar leaf.
//   - Nodes emits one flat record per leaf, grouping the scalar children of
//     a dict (or of each record of a list) into a single combined record.
//
// Every node is gated by rbac.Visible before it is entered. Resolved values
// flow through the source's resolver, then the filter (multi-valued sources
// only), then the postformat.
//
// An Engine is safe for concurrent use. Each call allocates its own
// evaluation state, and the current context item travels down the recursion
// as an argument rather than through shared storage.
//
// Basic usage:
//
//	eng, err := engine.New(engine.DefaultEngineConfig(), logger)
//	if err != nil {
//		return err
//	}
//	out, err := eng.Detail(ctx, root, engine.Input{
//		Documents: resolver.Documents{"input": doc},
//		Roles:     []string{"restricted"},
//	})
package engine
