package db

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"roads", `"roads"`},
		{"gis.roads", `"gis"."roads"`},
		{"city.gis.roads", `"city"."gis"."roads"`},
		{`we"ird`, `"we""ird"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Identifier(tt.in))
	}
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "://not a url", PoolConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: parse config")
}

func TestPool_MockSatisfiesInterface(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mock.Close()

	var p Pool = mock
	mock.ExpectPing()
	require.NoError(t, p.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
