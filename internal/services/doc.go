// Package services implements the interactive dataset workflow behind the
// HTTP handlers.
//
// # Sessions
//
// Every upload creates a session holding the loaded Table. Actions (clean,
// transform, validate, report) are applied through operations.Runner. A
// failed action returns a typed error and leaves the session Table as it
// was before the action.
//
// Sessions live in memory only. The store map is guarded by a mutex and
// each session serializes its own actions.
//
// # Usage
//
//	svc := services.NewDatasetService(runner, cfg.Paths, logger)
//	info, err := svc.Upload(ctx, file, header.Filename)
//	result, err := svc.Apply(ctx, info.ID, operations.ActionClean)
package services
