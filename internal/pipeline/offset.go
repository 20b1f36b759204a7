package pipeline

// CanonicalNumber maps a source's chapter index to the catalog number.
func CanonicalNumber(sourceIndex, offset int) int {
	return sourceIndex + offset
}

// SourceIndex is the inverse of CanonicalNumber.
func SourceIndex(canonical, offset int) int {
	return canonical - offset
}
