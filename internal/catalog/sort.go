package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/yoyothesheep/MySoilMate/internal/data"
)

// Sort orders plants in place by key. Equal keys fall back to ascending
// id, so repeated listings paginate identically. SortNone leaves the
// slice as the store returned it.
func Sort(plants []*data.Plant, key SortKey) {
	var compare func(a, b *data.Plant) int

	switch key {
	case SortName:
		compare = func(a, b *data.Plant) int {
			return strings.Compare(a.Name, b.Name)
		}
	case SortLight:
		compare = func(a, b *data.Plant) int {
			return compareMissingLast(a.LightLevel.Rank(), a.LightLevel.Valid(), b.LightLevel.Rank(), b.LightLevel.Valid())
		}
	case SortZone:
		compare = func(a, b *data.Plant) int {
			za, okA := minZone(a)
			zb, okB := minZone(b)
			return compareMissingLast(za, okA, zb, okB)
		}
	default:
		return
	}

	slices.SortStableFunc(plants, func(a, b *data.Plant) int {
		if c := compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// compareMissingLast compares two optional ints; absent values order
// after every present one.
func compareMissingLast(a int, okA bool, b int, okB bool) int {
	switch {
	case okA && okB:
		return cmp.Compare(a, b)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

// minZone returns the smallest numeric hardiness zone among the plant's
// zones. ok is false when the plant has no parseable zone.
func minZone(p *data.Plant) (zone int, ok bool) {
	for _, z := range p.Zones {
		n, parsed := zoneNumber(z.Zone)
		if !parsed {
			continue
		}
		if !ok || n < zone {
			zone, ok = n, true
		}
	}
	return zone, ok
}
