package models

// TagRecord holds the per-label file frequencies of a single metadata tag.
type TagRecord struct {
	Tag      string  `json:"tag"`
	RealFreq int     `json:"real_freq"`
	AIFreq   int     `json:"ai_freq"`
	Diff     int     `json:"diff"`
	Ratio    float64 `json:"ratio"`
}

// NewTagRecord builds a record with Diff and the Laplace-smoothed Ratio
// derived from the two frequencies. Ratio is always strictly positive.
func NewTagRecord(tag string, realFreq, aiFreq int) TagRecord {
	return TagRecord{
		Tag:      tag,
		RealFreq: realFreq,
		AIFreq:   aiFreq,
		Diff:     realFreq - aiFreq,
		Ratio:    float64(realFreq+1) / float64(aiFreq+1),
	}
}

// Ranks reports whether r sorts before other in a ranked tag list:
// descending ratio, then ascending tag name.
func (r TagRecord) Ranks(other TagRecord) bool {
	if r.Ratio != other.Ratio {
		return r.Ratio > other.Ratio
	}
	return r.Tag < other.Tag
}
