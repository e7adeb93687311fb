// Package influxdb provides the time-series client for Atrium Core.
//
// It wraps influxdb-client-go/v2 with:
//   - Connection management and health checks
//   - Non-blocking batched writes of applied-state and scene-execution records
//   - Flux reads for "last applied" capability state
//
// The core consumes this package only through the narrow history store
// (internal/history); aggregators never talk to InfluxDB directly.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteAppliedState("living-room", "lighting", "movie", time.Now())
package influxdb
