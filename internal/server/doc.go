// Package server provides the gallery's listing proxy: HTTP routing, middleware and handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [ChiRouter] implements
// it on go-chi, with JSON bodies for 404 and 405 responses.
//
// # Listing Proxy
//
// Listing resources needs the Admin API secret, which must not ship to browsers or be copied
// to every machine running the CLI. [ProxyHandler] serves GET /api/cloudinary?type=&tag= using
// a server-side lister and returns {"resources": [...]}, the shape services.ProxyLister decodes.
// Failures return 500 with {"error": "Failed to fetch media", "details": ...}; other methods
// return 405 with {"error": "Method not allowed"}.
//
// # Middleware
//
//   - [CORS] : go-chi/cors with the configured allowed origins
//   - [RequestID] : X-Request-ID propagation, uuid when absent
//   - [RequestLogger] : one structured log line per request
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
