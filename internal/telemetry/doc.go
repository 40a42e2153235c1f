// Package telemetry streams terminal metrics to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes, and health monitoring. Attached
// to the event bus, it records every operation status sample and every
// equipment change as time-series points.
//
// # Usage
//
//	client, err := telemetry.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // telemetry is optional; ErrDisabled is the expected off switch
//	}
//	defer client.Close()
//
//	subs := client.Attach(bus)
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are delivered through the
// SetOnError callback. Connection and health check errors are returned
// directly. The data layer runs unchanged when telemetry is disabled or
// unreachable.
package telemetry
