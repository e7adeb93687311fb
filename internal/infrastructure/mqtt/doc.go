// Package mqtt provides the MQTT client for Atrium Core.
//
// It wraps eclipse/paho.mqtt.golang with:
//   - Connection management and automatic reconnection with backoff
//   - Subscription tracking and restoration after reconnect
//   - Last Will and Testament for offline detection
//   - Panic-safe message handler dispatch
//   - Topic builders for the Atrium namespace
//
// Topic layout:
//
//	atrium/directory/device/{device_id}                 retained device documents
//	atrium/directory/removed/{device_id}                device removals
//	atrium/telemetry/{device_id}/{channel}/{property}   property value reports
//	atrium/command/{device_id}                          outbound commands
//	atrium/event/{kind}                                 mirrored core events
//	atrium/system/status                                core online/offline
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.Subscribe(mqtt.Topics{}.AllPropertyState(), 1, handler)
package mqtt
