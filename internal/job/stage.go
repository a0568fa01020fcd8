package job

// Stage is the position of a Job in its run, a run only moves forward and ends
// in either StageDone or StageFailed.
type Stage int

const (
	StageIdle Stage = iota
	StageFetching
	StageParsing
	StageDiffing
	StagePersisting
	StageNotifying
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageFetching:
		return "fetching"
	case StageParsing:
		return "parsing"
	case StageDiffing:
		return "diffing"
	case StagePersisting:
		return "persisting"
	case StageNotifying:
		return "notifying"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}
