package hashindex

// MergeBucket copies every entry of other into b. It is only ever
// called when the split-image invariant guarantees the combined entry
// count fits within one bucket's capacity (see Table.Remove's merge
// loop), so a false return here is an invariant violation, not a
// benign capacity failure.
func (b *BucketPage[K, V]) MergeBucket(other *BucketPage[K, V], cmp Comparator[K]) bool {
	for i := uint32(0); i < other.Size(); i++ {
		k, v := other.EntryAt(i)
		if !b.Insert(k, v, cmp) {
			return false
		}
	}
	return true
}
