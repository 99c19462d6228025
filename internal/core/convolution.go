package core

// Convolution redistributes one grid through a precomputed spatial kernel:
// next[c] = sum over the window of kernel[n->c] * curr[n]. Frozen and
// off-grid neighbors contribute nothing, so mass aimed across a boundary is
// lost rather than renormalized. Cost is O(cells * R^2).
type Convolution struct {
	name   string
	in     string
	out    string
	kernel *Kernel
}

// NewConvolution binds a kernel to its input and output grid names.
func NewConvolution(name, in, out string, k *Kernel) *Convolution {
	return &Convolution{name: name, in: in, out: out, kernel: k}
}

func (r *Convolution) Name() string { return r.name }

func (r *Convolution) Reads() []string { return []string{r.in} }

func (r *Convolution) Writes() []string { return []string{r.out} }

// Radius reports the kernel reach, used to size sparse-activity dilation.
func (r *Convolution) Radius() int { return r.kernel.Radius }

// Apply gathers the weighted window around every simulated cell.
func (r *Convolution) Apply(t *Tick) error {
	src := t.In(r.in)
	dst := t.Out(r.out)
	mask := t.Mask().Values()
	w, h := t.W(), t.H()
	srcVals := src.Values()
	dstVals := dst.Values()
	cells := r.kernel.Cells
	t.ForEach(func(x, y, idx int) {
		var sum float64
		for _, kc := range cells {
			nx, ny := x+kc.DX, y+kc.DY
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			nIdx := ny*w + nx
			if !mask[nIdx] {
				continue
			}
			sum += kc.Weight * srcVals[nIdx]
		}
		dstVals[idx] = sum
	})
	return nil
}
