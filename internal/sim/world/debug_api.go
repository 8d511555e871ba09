package world

import "strings"

// MemorySlice renders the horizontal plane z = obs.Z around an observer as
// text, north (+Y) up:
//
//	@ observer   s seeker
//	# visible obstacle   . visible open
//	+ remembered obstacle   , remembered open
//
// Cells never seen are blank.
func (w *World) MemorySlice(observerID string, halfWidth int) []string {
	o := w.Observer(observerID)
	if o == nil {
		return nil
	}
	seekerAt := map[Vec3i]bool{}
	for _, s := range w.seekers {
		seekerAt[s.Pos] = true
	}

	rows := make([]string, 0, 2*halfWidth+1)
	var b strings.Builder
	for dy := halfWidth; dy >= -halfWidth; dy-- {
		b.Reset()
		for dx := -halfWidth; dx <= halfWidth; dx++ {
			off := Vec3i{X: dx, Y: dy}
			p := o.Pos.Add(off)
			switch {
			case off == (Vec3i{}):
				b.WriteByte('@')
			case seekerAt[p] && o.Sight.Visible.Has(off):
				b.WriteByte('s')
			case o.Sight.Visible.Has(off):
				if w.chunks.Obstacle(p) {
					b.WriteByte('#')
				} else {
					b.WriteByte('.')
				}
			case o.Memory.IsMemorized(p):
				if w.chunks.Obstacle(p) {
					b.WriteByte('+')
				} else {
					b.WriteByte(',')
				}
			default:
				b.WriteByte(' ')
			}
		}
		rows = append(rows, strings.TrimRight(b.String(), " "))
	}
	return rows
}
