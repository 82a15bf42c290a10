// Package internal runs compiled tgrep queries over documents.
//
// Key components:
//
// Engine: compiles one query and evaluates it over documents. For every
// document a fresh cursor is fed page by page; the predicate runs once per
// advance and each hit becomes a match.Record. A fault on one token is
// logged and counted, never fatal to the scan.
//
// Stats: caller-owned counters updated by the evaluation loop.
//
// Cache: on-disk results keyed by document and query, invalidated when
// the document's content changes.
//
// Watch mode: StartWatching rescans documents as they change on disk.
//
// Usage:
//
//	engine, err := internal.NewEngine("(within 5 command line)", internal.WithLogger(logger))
//	if err != nil {
//	    // compile error: errors.Is(err, query.ErrSyntax), ...
//	}
//	res, err := engine.Run("manual.txt")
package internal
