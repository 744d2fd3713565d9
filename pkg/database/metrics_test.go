package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smhassan90/salaahManager/pkg/logger"
)

func TestDBStatsCollector_Describe(t *testing.T) {
	c := NewDBStatsCollector(nil, "session")

	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)

	var names []string
	for d := range ch {
		names = append(names, d.String())
	}
	require.Len(t, names, 8)
	assert.Contains(t, strings.Join(names, "\n"), "db_pool_open_connections")
}

func TestDBStatsCollector_CollectsOpenDB(t *testing.T) {
	cfg := DefaultSQLiteConfig(filepath.Join(t.TempDir(), "stats.db"))
	db, err := NewSQLiteDB(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewDBStatsCollector(db, "session")))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		require.Len(t, mf.GetMetric(), 1)
		m := mf.GetMetric()[0]
		require.Equal(t, "session", m.GetLabel()[0].GetValue())
		if g := m.GetGauge(); g != nil {
			values[mf.GetName()] = g.GetValue()
		}
	}
	assert.Len(t, families, 8)
	assert.Equal(t, float64(1), values["db_pool_max_open_connections"])
}
