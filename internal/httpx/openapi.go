package httpx

import "net/http"

const openAPIDocument = `{
  "openapi": "3.0.3",
  "info": { "title": "bstore", "version": "1" },
  "paths": {
    "/api/": { "get": { "summary": "list buckets" } },
    "/api/{bucket}": {
      "get": { "summary": "list files in bucket" },
      "post": { "summary": "insert many from multipart form" },
      "delete": { "summary": "delete bucket" }
    },
    "/api/{bucket}/last": { "get": { "summary": "get info for most recently inserted file" } },
    "/api/{bucket}/zip": { "post": { "summary": "insert all entries from a zip archive" } },
    "/api/{bucket}/{file_name}": {
      "post": { "summary": "insert one file" },
      "get": { "summary": "download by (bucket, path)" },
      "delete": { "summary": "delete by (bucket, path)" }
    },
    "/api/file/{id}": {
      "get": { "summary": "download by id" },
      "delete": { "summary": "delete by id" }
    },
    "/api/file/{id}/meta": { "get": { "summary": "get file info by id" } }
  }
}`

// handleOpenAPI serves the static OpenAPI description at
// /api-doc/openapi.json.
func (h *Handler) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(openAPIDocument))
}

const swaggerPage = `<!DOCTYPE html>
<html>
<head><title>bstore API</title></head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
  window.onload = () => SwaggerUIBundle({ url: '/api-doc/openapi.json', dom_id: '#swagger-ui' });
</script>
</body>
</html>`

// handleSwagger serves a minimal Swagger UI shell at /swagger that points at
// the openapi.json document above.
func (h *Handler) handleSwagger(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(swaggerPage))
}
