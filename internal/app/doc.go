// Package app wires the excelflow web application: configuration, the
// process logger, OpenTelemetry providers, the pipeline runner, the dataset
// session service, the chi router and the HTTP server.
//
// The main entry point is:
//
//	application, err := app.NewApplication(configFile)
//	if err != nil {
//	    os.Exit(1)
//	}
//	err = application.Run(ctx)
//
// Run blocks until the context is cancelled or SIGINT/SIGTERM arrives and
// then shuts the server down gracefully. Initialization errors are returned
// to the caller; the package never calls os.Exit.
package app
