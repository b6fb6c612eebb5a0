/*
Package observability provides Prometheus instrumentation for the flowcanvas editor.

Metrics counts history activity (pushes, undos, redos and the number of kept
snapshots), rejected edits by operation and reason, and the size of the active
graph. Each Metrics value owns its own registry, so several editors can live in
one process (and in one test binary) without colliding registrations.
*/
package observability
