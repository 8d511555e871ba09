package digestcodec

import (
	"io"
	"sort"

	"voxelfog.ai/internal/sim/world/logic/mathx"
)

// WriteSortedVecs emits a count followed by the points in (Z, Y, X) order,
// so the encoding does not depend on how the caller collected them.
func WriteSortedVecs(w io.Writer, tmp *[8]byte, vs []mathx.Vec3i) {
	sorted := append([]mathx.Vec3i(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	WriteU64(w, tmp, uint64(len(sorted)))
	for _, v := range sorted {
		WriteVec(w, tmp, v)
	}
}
