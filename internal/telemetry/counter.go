package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/openbeelab/beemon/internal/metrics"
	"go.uber.org/zap"
)

// Querier is the slice of the time-series client the counter depends on.
type Querier interface {
	Query(q client.Query) (*client.Response, error)
}

// Counter answers per-day sample counts for a set of device keys. Query
// failures of any kind degrade to an empty result: a broken telemetry store
// must never abort a whole report.
type Counter struct {
	querier  Querier
	database string
	builder  *QueryBuilder
	logger   *zap.Logger
}

// NewCounter constructs a Counter over the given query interface.
func NewCounter(querier Querier, database string, builder *QueryBuilder, logger *zap.Logger) *Counter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{querier: querier, database: database, builder: builder, logger: logger}
}

// DailyCounts returns a map of ISO date -> sample count over [from, to) for
// the given device keys. On any failure (connectivity, syntax, timeout) the
// map is empty and the failure is logged and counted, not returned.
func (c *Counter) DailyCounts(ctx context.Context, deviceKeys []string, from, to time.Time) map[string]int64 {
	counts := make(map[string]int64)

	if len(deviceKeys) == 0 {
		return counts
	}
	if err := ctx.Err(); err != nil {
		c.degrade(deviceKeys, err)
		return counts
	}

	statement, err := c.builder.DailyCounts(deviceKeys, from, to)
	if err != nil {
		c.degrade(deviceKeys, err)
		return counts
	}

	resp, err := c.querier.Query(client.NewQuery(statement, c.database, ""))
	if err != nil {
		c.degrade(deviceKeys, err)
		return counts
	}
	if err := resp.Error(); err != nil {
		c.degrade(deviceKeys, err)
		return counts
	}

	for _, result := range resp.Results {
		for _, series := range result.Series {
			for _, row := range series.Values {
				day, n, ok := parseCountRow(row)
				if !ok {
					continue
				}
				counts[day] += n
			}
		}
	}

	return counts
}

// SampleSet holds raw samples for one device, column-major headers first.
type SampleSet struct {
	Columns []string
	Rows    [][]interface{}
}

// RawSamples fetches raw samples for a single device over [from, to). Unlike
// DailyCounts this propagates failures: a per-device data download must
// surface a broken store to the requester.
func (c *Counter) RawSamples(ctx context.Context, deviceKey string, fields []string, from, to time.Time) (SampleSet, error) {
	if err := ctx.Err(); err != nil {
		return SampleSet{}, err
	}

	statement, err := c.builder.RawSamples(deviceKey, fields, from, to)
	if err != nil {
		return SampleSet{}, err
	}

	resp, err := c.querier.Query(client.NewQuery(statement, c.database, "rfc3339"))
	if err != nil {
		return SampleSet{}, fmt.Errorf("query telemetry samples: %w", err)
	}
	if err := resp.Error(); err != nil {
		return SampleSet{}, fmt.Errorf("query telemetry samples: %w", err)
	}

	var set SampleSet
	for _, result := range resp.Results {
		for _, series := range result.Series {
			if set.Columns == nil {
				set.Columns = series.Columns
			}
			set.Rows = append(set.Rows, series.Values...)
		}
	}

	if len(set.Rows) == 0 {
		return SampleSet{}, ErrNoData
	}

	return set, nil
}

func (c *Counter) degrade(deviceKeys []string, err error) {
	metrics.TelemetryQueryFailures.Inc()
	c.logger.Warn("telemetry query degraded to zero measurements",
		zap.Strings("device_keys", deviceKeys),
		zap.Error(err),
	)
}

// parseCountRow extracts (ISO date, count) from a GROUP BY time(1d) row.
// Rows with null counts (fill gaps) are skipped.
func parseCountRow(row []interface{}) (string, int64, bool) {
	if len(row) < 2 || row[0] == nil || row[1] == nil {
		return "", 0, false
	}

	ts, ok := row[0].(string)
	if !ok || len(ts) < 10 {
		return "", 0, false
	}

	num, ok := row[1].(json.Number)
	if !ok {
		return "", 0, false
	}
	n, err := num.Int64()
	if err != nil {
		return "", 0, false
	}

	return ts[:10], n, true
}
