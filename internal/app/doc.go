// Package app wires the shared runtime of the pipeline binaries.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, the config file and BALAG_* variables
//	2. Resolve and create the directory tree
//	3. Initialize the JSON logger and OpenTelemetry
//	4. Build the record validator
//
// # Usage
//
//	application, err := app.New("cleaner")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer application.Close(context.Background())
//
//	ctx, stop := application.SignalContext()
//	defer stop()
//
// Close dumps the pipeline metrics into the reports directory when
// telemetry.metrics_file is set, then shuts the providers down.
package app
