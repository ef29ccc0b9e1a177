package report

// Packer places text items into a fixed number of capacity-limited bins,
// first fit. An item fits a bin when the combined length stays strictly under
// Limit. Items that fit nowhere are dropped and counted.
type Packer struct {
	Bins    []string
	Limit   int
	Dropped []string

	used []bool
}

// NewPacker returns n bins, each starting with prefix.
func NewPacker(n, limit int, prefix string) *Packer {
	bins := make([]string, n)
	for i := range bins {
		bins[i] = prefix
	}
	return &Packer{Bins: bins, Limit: limit, used: make([]bool, n)}
}

// Place appends item to the first bin with room and reports whether it fit.
func (p *Packer) Place(item string) bool {
	for i, b := range p.Bins {
		if len(b)+len(item) < p.Limit {
			p.Bins[i] = b + item
			p.used[i] = true
			return true
		}
	}
	p.Dropped = append(p.Dropped, item)
	return false
}

// Used returns the bins that received at least one item, in bin order.
func (p *Packer) Used() []string {
	var out []string
	for i, b := range p.Bins {
		if p.used[i] {
			out = append(out, b)
		}
	}
	return out
}
