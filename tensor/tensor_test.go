package tensor

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		shape   []int
		data    []float32
		wantErr bool
	}{
		{"valid 2D", []int{2, 3}, []float32{1, 2, 3, 4, 5, 6}, false},
		{"valid 1D", []int{4}, []float32{1, 2, 3, 4}, false},
		{"data too short", []int{2, 3}, []float32{1, 2}, true},
		{"data too long", []int{2}, []float32{1, 2, 3}, true},
		{"empty shape", []int{}, []float32{}, true},
		{"zero dimension", []int{2, 0}, []float32{}, true},
		{"negative dimension", []int{2, -1}, []float32{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor, err := New(tt.shape, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				return
			}
			if tensor.NumElems != len(tt.data) {
				t.Errorf("NumElems = %d, want %d", tensor.NumElems, len(tt.data))
			}
		})
	}
}

func TestStrides(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
		want  []int
	}{
		{"2D", []int{2, 3}, []int{3, 1}},
		{"3D", []int{4, 2, 3}, []int{6, 3, 1}},
		{"1D", []int{5}, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor, err := Zeros(tt.shape)
			if err != nil {
				t.Fatalf("Zeros() error = %v", err)
			}
			if len(tensor.Strides) != len(tt.want) {
				t.Fatalf("Strides = %v, want %v", tensor.Strides, tt.want)
			}
			for i, s := range tt.want {
				if tensor.Strides[i] != s {
					t.Errorf("Strides[%d] = %d, want %d", i, tensor.Strides[i], s)
				}
			}
		})
	}
}

func TestGradLifecycle(t *testing.T) {
	tensor, err := Zeros([]int{2, 2})
	if err != nil {
		t.Fatalf("Zeros() error = %v", err)
	}

	if got := tensor.Grad(); got != nil {
		t.Errorf("Grad() before SetRequiresGrad = %v, want nil", got)
	}

	tensor.SetRequiresGrad(true)
	grad := tensor.Grad()
	if grad == nil {
		t.Fatal("Grad() after SetRequiresGrad = nil")
	}
	if len(grad) != tensor.NumElems {
		t.Errorf("len(Grad()) = %d, want %d", len(grad), tensor.NumElems)
	}

	grad[0] = 1.5
	tensor.ZeroGrad()
	if tensor.Grad()[0] != 0 {
		t.Errorf("Grad()[0] after ZeroGrad = %v, want 0", tensor.Grad()[0])
	}
}

func TestSetData(t *testing.T) {
	tensor, err := Zeros([]int{2, 2})
	if err != nil {
		t.Fatalf("Zeros() error = %v", err)
	}

	if err := tensor.SetData([]float32{1, 2, 3, 4}); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	if tensor.Data[3] != 4 {
		t.Errorf("Data[3] = %v, want 4", tensor.Data[3])
	}

	if err := tensor.SetData([]float32{1, 2}); err == nil {
		t.Error("SetData() with wrong length should fail")
	}
}

func TestCloneAndEqual(t *testing.T) {
	orig, err := New([]int{2, 2}, []float32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	clone := orig.Clone()
	if !orig.Equal(clone) {
		t.Error("clone should equal original")
	}

	clone.Data[0] = 99
	if orig.Equal(clone) {
		t.Error("mutated clone should not equal original")
	}
	if orig.Data[0] != 1 {
		t.Error("mutating the clone must not affect the original")
	}

	other, _ := New([]int{4}, []float32{1, 2, 3, 4})
	if orig.Equal(other) {
		t.Error("tensors with different shapes should not be equal")
	}
	if orig.Equal(nil) {
		t.Error("tensor should not equal nil")
	}
}

func TestZeroGrads(t *testing.T) {
	var params []*Tensor
	for i := 0; i < 3; i++ {
		p, err := Zeros([]int{2})
		if err != nil {
			t.Fatalf("Zeros() error = %v", err)
		}
		p.SetRequiresGrad(true)
		p.Grad()[0] = float32(i + 1)
		params = append(params, p)
	}

	ZeroGrads(params)
	for i, p := range params {
		if p.Grad()[0] != 0 {
			t.Errorf("param %d grad = %v, want 0", i, p.Grad()[0])
		}
	}
}
