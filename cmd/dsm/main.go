// dsm evaluates data semantic models against input documents.
//
// A model is a declarative tree describing an output shape and how each
// field is resolved from the inputs. dsm evaluates it into a nested
// document or a flat stream of annotated records.
//
// Usage:
//
//	# Evaluate a model into a nested document
//	dsm eval --model models/monitor.yaml --input input=show_monitor.json
//
//	# Flat records for the "viewer" role, as CSV
//	dsm eval --model models/monitor.yaml --input input=show_monitor.json \
//	    --mode list --roles viewer --output csv
//
//	# Check models without evaluating them
//	dsm lint --dir models/
//
//	# Serve the models directory over HTTP
//	dsm serve --config config.yaml
//
//	# Inspect and prune the run log
//	dsm runs list --status error
//	dsm runs prune
package main

func main() {
	Execute()
}
