package operation

import (
	"encoding/json"
	"errors"
	"math"
	"production-simulator/internal/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func rawRecord(t *testing.T, v any) map[string]json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	return raw
}

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	for _, capacity := range []int{0, -3} {
		_, err := New("Taglio", types.MachineTaglierina, 10, 20, capacity, types.ProductTubo)
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	}
}

func TestNew_RejectsInvalidRange(t *testing.T) {
	_, err := New("Taglio", types.MachineTaglierina, 30, 20, 5, types.ProductTubo)
	assert.ErrorIs(t, err, ErrInvalidDurationRange)

	_, err = New("Taglio", types.MachineTaglierina, -1, 20, 5, types.ProductTubo)
	assert.ErrorIs(t, err, ErrInvalidDurationRange)
}

func TestNew_SamplesOnConstruction(t *testing.T) {
	op, err := New("Lavaggio", types.MachineLavatrice, 42, 42, 10, types.ProductGhiera)
	require.NoError(t, err)
	assert.Equal(t, 42, op.SampledDuration())
}

func TestNew_MaterialsNotShared(t *testing.T) {
	a, err := New("A", types.MachinePressa, 1, 2, 1, types.ProductCodolo)
	require.NoError(t, err)
	b, err := New("B", types.MachinePressa, 1, 2, 1, types.ProductCodolo)
	require.NoError(t, err)

	a.Materials = append(a.Materials, "acciaio")
	assert.Empty(t, b.Materials)
}

func TestSampleDuration_WithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		minSeconds := rapid.IntRange(0, 100000).Draw(rt, "min")
		maxSeconds := rapid.IntRange(minSeconds, minSeconds+100000).Draw(rt, "max")
		op, err := New("op", types.MachineForno, minSeconds, maxSeconds, 1, types.ProductCodolo)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		for i := 0; i < 20; i++ {
			got := op.SampleDuration()
			if got < minSeconds || got > maxSeconds {
				rt.Fatalf("sample %d outside [%d, %d]", got, minSeconds, maxSeconds)
			}
			if got != op.SampledDuration() {
				rt.Fatalf("sample not stored")
			}
		}
	})
}

func TestSampleDuration_FullIntRange(t *testing.T) {
	op, err := New("Collaudo", types.MachineBancoProva, 0, math.MaxInt, 5, types.ProductCodolo)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, op.SampleDuration(), 0)
	}

	op, err = New("Collaudo", types.MachineBancoProva, math.MaxInt, math.MaxInt, 5, types.ProductCodolo)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, op.SampleDuration())
}

func TestFromRecord_FullIntRange(t *testing.T) {
	raw := rawRecord(t, map[string]any{
		"name": "Collaudo", "machine": "Banco prova 400ATM", "min_duration_seconds": 0,
		"max_duration_seconds": math.MaxInt, "max_batch_capacity": 5, "product": "Tubo raccordato",
	})
	op, err := FromRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, op.MaxDurationSeconds)
}

func TestSampleDuration_Uniform(t *testing.T) {
	op, err := New("op", types.MachineForno, 0, 9, 1, types.ProductCodolo)
	require.NoError(t, err)

	const trials = 100000
	counts := make([]int, 10)
	for i := 0; i < trials; i++ {
		counts[op.SampleDuration()]++
	}

	// 卡方检验，自由度 9，p=0.001 的临界值约为 27.88
	expected := float64(trials) / 10
	chi2 := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	assert.Less(t, chi2, 27.88, "counts: %v", counts)
}

func TestRecordRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		minSeconds := rapid.IntRange(0, 1000).Draw(rt, "min")
		op, err := New(
			rapid.StringMatching(`[A-Za-z0-9 ]{0,24}`).Draw(rt, "name"),
			rapid.SampledFrom(types.DefaultMachines()).Draw(rt, "machine"),
			minSeconds,
			rapid.IntRange(minSeconds, 5000).Draw(rt, "max"),
			rapid.IntRange(1, 1000).Draw(rt, "capacity"),
			rapid.SampledFrom(types.DefaultProducts()).Draw(rt, "product"),
		)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}

		data, err := json.Marshal(op.ToRecord())
		if err != nil {
			rt.Fatalf("marshal: %v", err)
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			rt.Fatalf("unmarshal: %v", err)
		}
		back, err := FromRecord(raw)
		if err != nil {
			rt.Fatalf("from record: %v", err)
		}
		if back.ToRecord() != op.ToRecord() {
			rt.Fatalf("round trip mismatch: %+v != %+v", back.ToRecord(), op.ToRecord())
		}
	})
}

func TestFromRecord_MissingField(t *testing.T) {
	full := map[string]any{
		"name": "Pressatura", "machine": "Pressa", "min_duration_seconds": 10,
		"max_duration_seconds": 20, "max_batch_capacity": 5, "product": "Tubo raccordato",
	}
	for _, field := range durableFields {
		t.Run(field, func(t *testing.T) {
			rec := make(map[string]any, len(full))
			for k, v := range full {
				if k != field {
					rec[k] = v
				}
			}
			_, err := FromRecord(rawRecord(t, rec))
			var missing *MissingFieldError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, field, missing.Field)
		})
	}
}

func TestFromRecord_CoercesNumericStrings(t *testing.T) {
	raw := rawRecord(t, map[string]any{
		"name": "Collaudo", "machine": "Banco prova 400ATM", "min_duration_seconds": 30,
		"max_duration_seconds": "45", "max_batch_capacity": " 12 ", "product": "Tubo raccordato",
	})
	op, err := FromRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, 45, op.MaxDurationSeconds)
	assert.Equal(t, 12, op.MaxBatchCapacity)
}

func TestFromRecord_BadTypes(t *testing.T) {
	raw := rawRecord(t, map[string]any{
		"name": "Collaudo", "machine": "Banco prova 400ATM", "min_duration_seconds": 30,
		"max_duration_seconds": 45, "max_batch_capacity": "dodici", "product": "Tubo raccordato",
	})
	_, err := FromRecord(raw)
	var typeErr *FieldTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, FieldCapacity, typeErr.Field)

	raw = rawRecord(t, map[string]any{
		"name": "Collaudo", "machine": "Banco prova 400ATM", "min_duration_seconds": 30,
		"max_duration_seconds": 45, "max_batch_capacity": 0, "product": "Tubo raccordato",
	})
	_, err = FromRecord(raw)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}
