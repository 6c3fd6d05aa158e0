package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"production-simulator/internal/event"
	"production-simulator/internal/metrics"
	"production-simulator/internal/types"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterEventHandlers_Metrics(t *testing.T) {
	bus := event.NewBus()
	RegisterEventHandlers(bus, slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))

	const product = "Ghiera AD1-08"
	success := metrics.EstimatesTotal.WithLabelValues("success", product)
	failed := metrics.EstimatesTotal.WithLabelValues("failed", product)
	beforeSuccess := testutil.ToFloat64(success)
	beforeFailed := testutil.ToFloat64(failed)
	beforeSaves := testutil.ToFloat64(metrics.SnapshotSavesTotal)

	bus.Publish(event.Event{Type: event.OperationAdded, Product: product, Count: 4})
	bus.Publish(event.Event{Type: event.EstimateComputed, Product: product, Seconds: 3600})
	bus.Publish(event.Event{Type: event.EstimateFailed, Product: product, Error: errors.New("bad quantity")})
	bus.Publish(event.Event{Type: event.SnapshotSaved, Path: "ops.json"})

	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.OperationsRegistered.WithLabelValues(product)))
	assert.Equal(t, beforeSuccess+1, testutil.ToFloat64(success))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
	assert.Equal(t, beforeSaves+1, testutil.ToFloat64(metrics.SnapshotSavesTotal))
}

func TestRegisterEventHandlers_SnapshotLoadedSeedsGauge(t *testing.T) {
	bus := event.NewBus()
	RegisterEventHandlers(bus, slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))

	bus.Publish(event.Event{
		Type:  event.SnapshotLoaded,
		Path:  "ops.json",
		Count: 5,
		Counts: map[types.Product]int{
			types.ProductCodolo: 3,
			types.ProductGhiera: 0,
			types.ProductTubo:   2,
		},
	})

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.OperationsRegistered.WithLabelValues(string(types.ProductCodolo))))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.OperationsRegistered.WithLabelValues(string(types.ProductGhiera))))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.OperationsRegistered.WithLabelValues(string(types.ProductTubo))))
}

func TestRegisterEventHandlers_AuditLog(t *testing.T) {
	var buf bytes.Buffer
	bus := event.NewBus()
	RegisterEventHandlers(bus, slog.New(slog.NewJSONHandler(&buf, nil)))

	bus.Publish(event.Event{Type: event.EstimateFailed, RunID: "r1", Product: "Tubo raccordato", Error: errors.New("bad quantity")})

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"run_id":"r1"`)
	assert.Contains(t, out, "bad quantity")
}
