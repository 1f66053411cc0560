// Package auth validates API keys for the evaluation server.
//
// Each key carries a name and the roles it may evaluate as. A request
// authenticated with a key can only ask for a subset of those roles, and a
// request naming no roles evaluates with all of them.
//
//	v := auth.NewValidator(cfg.Server.Auth.Keys)
//	key, err := auth.FromRequest(r, "Authorization", "Bearer")
//	info, err := v.Validate(key)
//	roles, err := info.Scope(requested)
//
// Keys are stored as SHA-256 digests and never logged.
package auth
