package framework

import "sort"

// Capabilities is the set of optional features the current service setup supports.
type Capabilities []string

func (c Capabilities) Has(desired string) bool {
	for _, capability := range c {
		if capability == desired {
			return true
		}
	}
	return false
}

// With returns a sorted copy of c that also contains the given capabilities.
func (c Capabilities) With(more ...string) Capabilities {
	ret := append(Capabilities(nil), c...)
	for _, m := range more {
		if !ret.Has(m) {
			ret = append(ret, m)
		}
	}
	sort.Strings(ret)
	return ret
}
