package resampler

import (
	"errors"
	"math"
	"testing"
)

func TestOutputLen(t *testing.T) {
	tests := []struct {
		n, src, dst int
		want        int
	}{
		{16000, 16000, 22050, 22050},
		{48000, 48000, 22050, 22050},
		{120000, 48000, 22050, 55125},
		{100, 22050, 22050, 100},
	}
	for _, tt := range tests {
		if got := OutputLen(tt.n, tt.src, tt.dst); got != tt.want {
			t.Errorf("OutputLen(%d, %d, %d) = %d, want %d", tt.n, tt.src, tt.dst, got, tt.want)
		}
	}
}

func TestResample_SameRateCopies(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3}
	out, err := Resample(in, 22050, 22050)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	out[0] = 9
	if in[0] != 0.1 {
		t.Fatal("output aliases input")
	}
}

func TestResample_InvalidRate(t *testing.T) {
	for _, rates := range [][2]int{{0, 22050}, {16000, 0}, {-1, 8000}} {
		_, err := Resample([]float32{0}, rates[0], rates[1])
		if !errors.Is(err, ErrInvalidRate) {
			t.Errorf("Resample(%d -> %d) err = %v, want ErrInvalidRate", rates[0], rates[1], err)
		}
	}
}

func TestResample_Upsample(t *testing.T) {
	const src, dst = 16000, 22050
	in := make([]float32, src)
	for i := range in {
		in[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/src))
	}
	out, err := Resample(in, src, dst)
	if err != nil {
		t.Fatal(err)
	}
	want := OutputLen(len(in), src, dst)
	if len(out) == 0 || len(out) > want {
		t.Fatalf("len = %d, want (0, %d]", len(out), want)
	}
	for i, s := range out {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d out of range: %f", i, s)
		}
	}
}

func TestResample_Empty(t *testing.T) {
	out, err := Resample(nil, 48000, 22050)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("len = %d, want 0", len(out))
	}
}
