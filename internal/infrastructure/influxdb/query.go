package influxdb

import (
	"context"
	"fmt"
	"time"
)

// lastAppliedLookback bounds how far back the last-applied query searches.
// Applied-state records older than this are treated as absent.
const lastAppliedLookback = -30 * 24 * time.Hour

// AppliedState is one applied-state record read back from InfluxDB.
type AppliedState struct {
	SpaceID    string
	Capability string
	Mode       string
	AppliedAt  time.Time
}

// QueryLastApplied returns the most recent applied-state record for a
// capability in a space, or nil if none exists within the lookback window.
func (c *Client) QueryLastApplied(ctx context.Context, spaceID, capability string) (*AppliedState, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %ds)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r.space_id == %q and r.capability == %q)
  |> filter(fn: (r) => r._field == "mode")
  |> last()`,
		c.cfg.Bucket,
		int(lastAppliedLookback.Seconds()),
		appliedStateMeasurement,
		spaceID,
		capability,
	)

	result, err := c.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("querying last applied state: %w", err)
	}
	defer result.Close() //nolint:errcheck // Read-only result

	for result.Next() {
		record := result.Record()
		mode, ok := record.Value().(string)
		if !ok {
			continue
		}
		return &AppliedState{
			SpaceID:    spaceID,
			Capability: capability,
			Mode:       mode,
			AppliedAt:  record.Time(),
		}, nil
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("reading last applied state: %w", result.Err())
	}

	return nil, nil
}
