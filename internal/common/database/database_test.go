package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compatibility-workers/internal/common/config"
)

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, 10, client.Client.Options().PoolSize)

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewRedis_PoolSize(t *testing.T) {
	client := NewRedis(config.RedisConfig{Address: "127.0.0.1:1", PoolSize: 25})
	defer client.Close()

	assert.Equal(t, 25, client.Client.Options().PoolSize)
	assert.Equal(t, 5, client.Client.Options().MinIdleConns)
}

func elasticStub(t *testing.T, status *atomic.Int32, indexStatus *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if r.Method == http.MethodHead && r.URL.Path == "/profiles" {
			w.WriteHeader(int(indexStatus.Load()))
			return
		}
		w.WriteHeader(int(status.Load()))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestElasticsearchClient_Ping(t *testing.T) {
	var status, indexStatus atomic.Int32
	status.Store(http.StatusOK)
	indexStatus.Store(http.StatusOK)
	srv := elasticStub(t, &status, &indexStatus)

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}, ProfileIndex: "profiles"})
	require.NoError(t, err)

	assert.NoError(t, client.Ping(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	assert.Error(t, client.Ping(context.Background()))
}

func TestElasticsearchClient_CheckProfileIndex(t *testing.T) {
	tests := []struct {
		name    string
		status  int32
		wantErr string
	}{
		{name: "present", status: http.StatusOK},
		{name: "missing", status: http.StatusNotFound, wantErr: "does not exist"},
		{name: "forbidden", status: http.StatusForbidden, wantErr: "index check error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var status, indexStatus atomic.Int32
			status.Store(http.StatusOK)
			indexStatus.Store(tt.status)
			srv := elasticStub(t, &status, &indexStatus)

			client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}, ProfileIndex: "profiles"})
			require.NoError(t, err)

			err = client.CheckProfileIndex(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresClient(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host: "127.0.0.1", Port: 1, Database: "matching", User: "matcher", SSLMode: "disable",
		MaxConnections: 4, MaxIdle: 1,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 4, client.DB.Stats().MaxOpenConnections)

	reg := prometheus.NewRegistry()
	require.NoError(t, client.RegisterMetrics(reg))
	assert.Error(t, client.RegisterMetrics(reg), "second registration collides")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "go_sql_max_open_connections")
}
