package intake

// Correlate appends one evidence record per file when st is collecting evidence,
// preserving order. It reports whether the files were recorded.
func Correlate(st *State, files []Attachment) bool {
	if st.Phase != PhaseCollectingEvidence {
		return false
	}
	for _, f := range files {
		st.Evidence = append(st.Evidence, EvidenceRecord{Name: f.Name, Size: f.Size})
	}
	return true
}
