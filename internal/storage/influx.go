package storage

import (
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/openbeelab/beemon/internal/config"
)

// NewInfluxClient establishes an HTTP client against the time-series store
// holding raw sensor telemetry.
func NewInfluxClient(cfg config.InfluxConfig) (client.Client, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.QueryTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create influx client: %w", err)
	}

	return c, nil
}

// PingInflux verifies connectivity to the time-series store.
func PingInflux(c client.Client, timeout time.Duration) error {
	if _, _, err := c.Ping(timeout); err != nil {
		return fmt.Errorf("ping influx: %w", err)
	}
	return nil
}
