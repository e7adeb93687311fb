package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// appliedStateMeasurement is the measurement name for capability
// applied-state records.
const appliedStateMeasurement = "applied_state"

// WriteAppliedState records a mode/scene application for a capability in a
// space. The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteAppliedState("living-room", "lighting", "movie", appliedAt)
func (c *Client) WriteAppliedState(spaceID, capability, mode string, appliedAt time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		appliedStateMeasurement,
		map[string]string{
			"space_id":   spaceID,
			"capability": capability,
		},
		map[string]interface{}{
			"mode": mode,
		},
		appliedAt,
	)

	c.writeAPI.WritePoint(point)
}

// WriteSceneExecution records the outcome of a scene execution for
// after-the-fact analysis.
func (c *Client) WriteSceneExecution(sceneID string, total, failed int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"scene_execution",
		map[string]string{
			"scene_id": sceneID,
		},
		map[string]interface{}{
			"actions_total":  total,
			"actions_failed": failed,
			"duration_ms":    duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
