package tal

import "golang.org/x/exp/constraints"

// mulOverflows and addOverflows are the generic size-arithmetic guards
// spec.md §4.4 requires before any array allocate/resize/expand, modeled
// on the teacher's allocator.Item[T constraints.Unsigned] generic entries.
func mulOverflows[T constraints.Unsigned](a, b T) bool {
	if a == 0 || b == 0 {
		return false
	}
	return a > ^T(0)/b
}

func addOverflows[T constraints.Unsigned](a, b T) bool {
	return a > ^T(0)-b
}
