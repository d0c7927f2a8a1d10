package access

import "sync"

var packerPool = sync.Pool{
	New: func() interface{} {
		return NewPacker(WithCapacity(256, 64))
	},
}

// GetPacker takes an empty packer from the pool. Options apply to this use only.
func GetPacker(opts ...Option) *Packer {
	p := packerPool.Get().(*Packer)
	p.Reset()
	p.policy = DuplicateShadow
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ReleasePacker returns p to the pool. p must not be used afterwards; byte
// slices obtained from Bytes stay valid since they are copies.
func ReleasePacker(p *Packer) {
	packerPool.Put(p)
}
