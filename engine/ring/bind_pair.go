package ring

import (
	"github.com/Carmen-Shannon/oxy-sim/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// BindFunc builds the provider for one orientation. read is the side the step reads, write the
// side it writes. The returned provider must have its bind group initialized.
type BindFunc func(side int, read, write *wgpu.Buffer) (bind_group_provider.BindGroupProvider, error)

// BindPair holds a bind group per ring orientation so that Swap never rebuilds anything.
type BindPair struct {
	providers  [2]bind_group_provider.BindGroupProvider
	generation uint64
}

// Build (re)creates both orientations. Existing providers are released first only after both
// new ones succeed.
//
// Parameters:
//   - r: the ring being bound
//   - bind: builds one orientation
//
// Returns:
//   - error: the first build error; the previous providers stay bound
func (bp *BindPair) Build(r *Ring, bind BindFunc) error {
	var fresh [2]bind_group_provider.BindGroupProvider
	for side := range fresh {
		p, err := bind(side, r.Side(side), r.Side(1-side))
		if err != nil {
			if fresh[0] != nil {
				fresh[0].Release()
			}
			return err
		}
		fresh[side] = p
	}
	bp.Release()
	bp.providers = fresh
	bp.generation = r.Generation()
	return nil
}

// Stale reports whether the ring was reallocated after the pair was built.
func (bp *BindPair) Stale(r *Ring) bool {
	return bp.providers[0] == nil || bp.generation != r.Generation()
}

// For returns the provider matching the ring's current orientation.
//
// Parameters:
//   - r: the ring
//
// Returns:
//   - bind_group_provider.BindGroupProvider: the provider whose read side is r.Current()
func (bp *BindPair) For(r *Ring) bind_group_provider.BindGroupProvider {
	return bp.providers[r.Active()]
}

// Release frees both providers.
func (bp *BindPair) Release() {
	for i, p := range bp.providers {
		if p != nil {
			p.Release()
			bp.providers[i] = nil
		}
	}
}
