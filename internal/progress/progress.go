package progress

// State is the derived study state of a chunk. It is recomputed fresh from the
// full attempt history every time; NeedsPractice is re-entrant and can move back
// through InProgress to Mastered as later attempts land.
type State string

const (
	NotStarted    State = "not_started"
	InProgress    State = "in_progress"
	Mastered      State = "mastered"
	NeedsPractice State = "needs_practice"
)

// ChunkResult aggregates one user's standing on one chunk, considering only the
// most recent attempt per item.
type ChunkResult struct {
	Chunk          Chunk `json:"chunk"`
	TotalItems     int   `json:"total_items"`
	Attempted      int   `json:"attempted"`
	Correct        int   `json:"correct"`
	TestCompleted  bool  `json:"test_completed"`
	Passed         bool  `json:"passed"`
	PracticeNeeded bool  `json:"practice_needed"`
	State          State `json:"state"`
}

// LatestByItem reduces a history to the most recent attempt per item. Ties on
// timestamp resolve to the later record in the slice.
func LatestByItem(history []Attempt) map[string]Attempt {
	latest := make(map[string]Attempt, len(history))
	for _, a := range history {
		if prev, ok := latest[a.ItemID]; !ok || !a.At.Before(prev.At) {
			latest[a.ItemID] = a
		}
	}
	return latest
}

// ChunkProgress computes the completion and mastery standing of a chunk from
// attempt history. Absent history is the normal "not attempted" state.
func ChunkProgress(c Chunk, history []Attempt) ChunkResult {
	latest := LatestByItem(history)
	res := ChunkResult{Chunk: c, TotalItems: len(c.Items)}
	for _, it := range c.Items {
		a, ok := latest[it.ID]
		if !ok {
			continue
		}
		res.Attempted++
		if a.Correct {
			res.Correct++
		}
	}
	res.TestCompleted = res.TotalItems > 0 && res.Attempted == res.TotalItems
	res.Passed = res.TestCompleted && res.Correct == res.TotalItems
	res.PracticeNeeded = res.TestCompleted && !res.Passed

	switch {
	case res.Attempted == 0:
		res.State = NotStarted
	case !res.TestCompleted:
		res.State = InProgress
	case res.Passed:
		res.State = Mastered
	default:
		res.State = NeedsPractice
	}
	return res
}
