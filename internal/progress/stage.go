package progress

// Stage is an ordered phase of study over a source: its number and the items it
// covers.
type Stage struct {
	Number int
	Items  []Item
}

// StageResult is the per-stage view returned by StageProgress.
type StageResult struct {
	Stage       int           `json:"stage"`
	TotalItems  int           `json:"total_items"`
	TotalChunks int           `json:"total_chunks"`
	Chunks      []ChunkResult `json:"chunks"`
	Perfect     bool          `json:"perfect"`
}

// StagePerfect reports whether every item in the set has a correct most-recent
// attempt. An empty item set is never perfect.
func StagePerfect(items []Item, history []Attempt) bool {
	if len(items) == 0 {
		return false
	}
	latest := LatestByItem(history)
	for _, it := range items {
		a, ok := latest[it.ID]
		if !ok || !a.Correct {
			return false
		}
	}
	return true
}

// StageProgress evaluates stages in order under strict linear mastery: a stage's
// detail is computed and reported, and evaluation stops after the first stage
// that is not yet perfect. Stages with no items are skipped without gating.
func StageProgress(source, subject string, stages []Stage, history []Attempt) []StageResult {
	var out []StageResult
	for _, st := range stages {
		if len(st.Items) == 0 {
			continue
		}
		chunks := Partition(st.Items, subject)
		res := StageResult{
			Stage:       st.Number,
			TotalItems:  len(st.Items),
			TotalChunks: len(chunks),
			Chunks:      make([]ChunkResult, 0, len(chunks)),
		}
		for i := range chunks {
			chunks[i].Source = source
			chunks[i].Stage = st.Number
			res.Chunks = append(res.Chunks, ChunkProgress(chunks[i], history))
		}
		res.Perfect = StagePerfect(st.Items, history)
		out = append(out, res)
		if !res.Perfect {
			break
		}
	}
	return out
}
