// Package runtime wires the Redis store, the Log Service, the serial
// controller, the drain executor and the consumer pool into one serialflo
// process. It exposes Open/Start/Close and a store health check.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: cfg, Elements: myHandler})
//	defer rt.Close()
//	_ = rt.Start(ctx)
//	_, _ = rt.Serial().Trigger(ctx, "orderA", `{"step":1}`)
package runtime
