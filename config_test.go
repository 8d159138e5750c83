package hnsw

import "testing"

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Dim: 8}.withDefaults()
	if cfg.M != defaultM {
		t.Errorf("M = %d, want %d", cfg.M, defaultM)
	}
	if cfg.EfConstruction != defaultEfConstruction {
		t.Errorf("EfConstruction = %d, want %d", cfg.EfConstruction, defaultEfConstruction)
	}
	if cfg.Capacity != defaultCapacity {
		t.Errorf("Capacity = %d, want %d", cfg.Capacity, defaultCapacity)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero dim", Config{Dim: 0}, ErrDimensionMismatch},
		{"bad metric", Config{Dim: 4, Metric: Metric(99)}, ErrInvalidMetric},
		{"ok", Config{Dim: 4, Metric: L2}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.validate(); err != tc.want {
				t.Errorf("validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMetricNormalizes(t *testing.T) {
	if L2.normalizes() {
		t.Error("L2 should not normalize")
	}
	if !Cosine.normalizes() {
		t.Error("Cosine should normalize")
	}
	if !InnerProduct.normalizes() {
		t.Error("InnerProduct should normalize")
	}
}

func TestM0IsDoubleM(t *testing.T) {
	cfg := Config{M: 16}
	if got := cfg.m0(); got != 32 {
		t.Errorf("m0() = %d, want 32", got)
	}
}
