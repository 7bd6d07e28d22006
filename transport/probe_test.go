package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckGatewayHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	probe := NewTransportProbe()
	assert.True(t, probe.CheckGateway(context.Background(), server.URL, time.Second))
}

func TestCheckGatewayUnhealthyStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	probe := NewTransportProbe()
	assert.False(t, probe.CheckGateway(context.Background(), server.URL, time.Second))
}

func TestCheckGatewayUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	probe := NewTransportProbe()
	assert.False(t, probe.CheckGateway(context.Background(), server.URL, 200*time.Millisecond))
}

func TestCheckGatewayEmptyEndpoint(t *testing.T) {
	probe := NewTransportProbe()
	assert.False(t, probe.CheckGateway(context.Background(), "", time.Second))
}

func TestCheckRuntimeAvailable(t *testing.T) {
	probe := NewTransportProbe()
	probe.lookPath = func(name string) (string, error) {
		if name == "docker" {
			return "/usr/bin/docker", nil
		}
		return "", errors.New("not found")
	}
	probe.runCommand = func(ctx context.Context, name string, args ...string) error { return nil }
	assert.True(t, probe.CheckRuntimeAvailable(context.Background()))
}

func TestCheckRuntimeAbsent(t *testing.T) {
	probe := NewTransportProbe()
	probe.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	assert.False(t, probe.CheckRuntimeAvailable(context.Background()))
}

func TestCheckRuntimePresentButSick(t *testing.T) {
	probe := NewTransportProbe()
	probe.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	probe.runCommand = func(ctx context.Context, name string, args ...string) error {
		return errors.New("daemon not running")
	}
	assert.False(t, probe.CheckRuntimeAvailable(context.Background()))
}
