// Package serverrun exposes a shared Run entrypoint used by the CLI to start
// the serialflo runtime, its consumer pool and the admin HTTP server,
// handling configuration, lifecycle and shutdown.
//
// Example:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{ConfigPath: "serialflo.yaml", HTTPAddr: ":8080"})
package serverrun
