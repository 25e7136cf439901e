// Package http implements the HTTP handlers of the excelflow web service.
//
// Handlers are thin: they parse the request, call the dataset service and
// render the result. Failures are rendered as RFC 7807 problem documents
// through the shared errors.ErrorHandler so every endpoint reports errors
// the same way.
//
// Routes served under /api:
//
//	GET    /api/health
//	GET    /api/datasets
//	POST   /api/datasets                      multipart upload, field "file"
//	GET    /api/datasets/{id}
//	DELETE /api/datasets/{id}
//	POST   /api/datasets/{id}/actions         {"action":"clean"}
//	GET    /api/datasets/{id}/preview?limit=N
//	GET    /api/datasets/{id}/download        processed_data.xlsx
//	GET    /api/datasets/{id}/report/{artifact}
package http
