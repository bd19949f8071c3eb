// Package api serves stored food webs and live editing sessions over HTTP.
//
// # Routes
//
// Stored webs live in a [store.Store] and are addressed by name:
//
//	GET    /health
//	GET    /webs                       list web names
//	GET    /webs/{name}                stored document
//	PUT    /webs/{name}                create or replace from a graph body
//	DELETE /webs/{name}
//	POST   /webs/{name}/analyze        analyze, persist positions and analysis
//	GET    /webs/{name}/render         render (?format=svg|dot|png|pdf|json)
//
// Sessions hold a live [engine.Engine] so a client can edit a web over
// several requests:
//
//	POST   /sessions                            open ({"web": name, "seed": n})
//	GET    /sessions/{id}                       settled graph and analysis
//	DELETE /sessions/{id}
//	POST   /sessions/{id}/tick                  advance one frame
//	POST   /sessions/{id}/save                  write the web back to the store
//	GET    /sessions/{id}/render
//	POST   /sessions/{id}/nodes                 add a node
//	DELETE /sessions/{id}/nodes/{node}          archive (?permanent=true removes)
//	POST   /sessions/{id}/nodes/{node}/restore
//	POST   /sessions/{id}/links                 add a link
//	DELETE /sessions/{id}/links/{source}/{target}
//
// # Errors
//
// Mutations are checked with the store guards before they are applied, so
// invalid edits come back as coded errors instead of panics:
//
//	{"error": {"code": "INVALID_LINK", "message": "link 3->3: self-link"}}
//
// Codes from pkg/errors map to HTTP status codes in [StatusCode].
//
// # Observability
//
// Every request is logged through the server's charmbracelet logger and
// reported to the registered observability.HTTPHooks using the matched route
// pattern as the path.
package api
