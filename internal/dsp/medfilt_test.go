package dsp

import (
	"reflect"
	"testing"
)

func TestMedFiltRemovesImpulse(t *testing.T) {
	x := []float64{1, 1, 1, 100, 1, 1, 1}
	got := MedFilt(x, 3)
	want := []float64{1, 1, 1, 1, 1, 1, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MedFilt = %v, want %v", got, want)
	}
}

func TestMedFiltZeroPaddedEdges(t *testing.T) {
	x := []float64{5, 5, 5}
	got := MedFilt(x, 3)
	// edge windows are [0,5,5] and [5,5,0], median 5; middle [5,5,5]
	want := []float64{5, 5, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MedFilt = %v, want %v", got, want)
	}

	x = []float64{9, 1, 1}
	got = MedFilt(x, 3)
	// first window [0,9,1] -> 1
	if got[0] != 1 {
		t.Errorf("MedFilt edge = %v, want 1", got[0])
	}
}

func TestMedFiltEvenKernelRoundsUp(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	if got, want := MedFilt(x, 2), MedFilt(x, 3); !reflect.DeepEqual(got, want) {
		t.Errorf("even kernel result %v differs from next odd %v", got, want)
	}
}

func TestMedFiltKernelOne(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5}
	got := MedFilt(x, 1)
	if !reflect.DeepEqual(got, x) {
		t.Errorf("MedFilt(k=1) = %v, want input unchanged", got)
	}
	got[0] = -1
	if x[0] == -1 {
		t.Error("MedFilt(k=1) aliased its input")
	}
}
