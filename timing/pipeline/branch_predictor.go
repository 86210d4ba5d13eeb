package pipeline

// Two-bit saturating counter states.
const (
	StronglyNotTaken uint8 = iota
	WeaklyNotTaken
	WeaklyTaken
	StronglyTaken
)

// BranchPredictorConfig holds configuration for the branch predictor.
type BranchPredictorConfig struct {
	// LogSize is log2 of the number of entries. Each entry holds one
	// counter and one BTB slot. Default is 6 (64 entries).
	LogSize uint
}

// BranchPredictorStats holds statistics for the branch predictor.
type BranchPredictorStats struct {
	// Predictions is the total number of branch predictions made.
	Predictions uint64
	// Resolutions is the number of branches and jumps resolved at commit.
	Resolutions uint64
	// Correct is the number of resolutions whose predicted next PC was right.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
	// BTBHits is the number of BTB hits.
	BTBHits uint64
	// BTBMisses is the number of BTB misses.
	BTBMisses uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Resolutions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Resolutions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s BranchPredictorStats) MispredictionRate() float64 {
	if s.Resolutions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Resolutions) * 100
}

// BTBHitRate returns the BTB hit rate as a percentage.
func (s BranchPredictorStats) BTBHitRate() float64 {
	total := s.BTBHits + s.BTBMisses
	if total == 0 {
		return 0
	}
	return float64(s.BTBHits) / float64(total) * 100
}

// Prediction represents a branch prediction result.
type Prediction struct {
	// Taken indicates whether the branch is predicted to be taken. It is
	// only set when the counter says taken and the BTB knows the target.
	Taken bool
	// Target is the predicted target address (if known from BTB).
	Target uint32
	// TargetKnown indicates whether the BTB tag matched.
	TargetKnown bool
}

// BranchPredictor implements a 2-bit saturating counter (bimodal) predictor
// with a direct-mapped Branch Target Buffer (BTB). Counter and BTB share one
// index; colliding branches simply overwrite each other.
type BranchPredictor struct {
	// States: 0=Strongly Not Taken, 1=Weakly Not Taken,
	//         2=Weakly Taken, 3=Strongly Taken
	counters []uint8

	btb []btbEntry

	logSize uint

	stats BranchPredictorStats
}

// btbEntry represents an entry in the Branch Target Buffer.
type btbEntry struct {
	valid  bool
	tag    uint32 // PC bits above the index
	target uint32
}

// NewBranchPredictor creates a new branch predictor with the given configuration.
func NewBranchPredictor(config BranchPredictorConfig) *BranchPredictor {
	logSize := config.LogSize
	if logSize == 0 {
		logSize = 6
	}

	bp := &BranchPredictor{
		counters: make([]uint8, 1<<logSize),
		btb:      make([]btbEntry, 1<<logSize),
		logSize:  logSize,
	}

	// Biased towards taken; the BTB still has to hit before a branch is
	// predicted taken.
	for i := range bp.counters {
		bp.counters[i] = WeaklyTaken
	}

	return bp
}

// index drops PC bits 1:0, which are always zero for word-aligned PCs.
func (bp *BranchPredictor) index(pc uint32) uint32 {
	return (pc >> 2) & (uint32(len(bp.counters)) - 1)
}

func (bp *BranchPredictor) tag(pc uint32) uint32 {
	return pc >> (2 + bp.logSize)
}

// Predict makes a branch prediction for the given PC.
func (bp *BranchPredictor) Predict(pc uint32) Prediction {
	pred := Prediction{}

	idx := bp.index(pc)
	entry := bp.btb[idx]
	if entry.valid && entry.tag == bp.tag(pc) {
		pred.Target = entry.target
		pred.TargetKnown = true
		bp.stats.BTBHits++
	} else {
		bp.stats.BTBMisses++
	}

	pred.Taken = bp.counters[idx] >= WeaklyTaken && pred.TargetKnown

	bp.stats.Predictions++
	return pred
}

// Update trains the predictor with the resolved outcome of the branch at pc.
// The counter moves one step toward the outcome; taken outcomes also
// overwrite the BTB entry.
func (bp *BranchPredictor) Update(pc uint32, taken bool, target uint32, mispredicted bool) {
	bp.stats.Resolutions++
	if mispredicted {
		bp.stats.Mispredictions++
	} else {
		bp.stats.Correct++
	}

	idx := bp.index(pc)
	counter := bp.counters[idx]

	if taken {
		if counter < StronglyTaken {
			bp.counters[idx] = counter + 1
		}
	} else {
		if counter > StronglyNotTaken {
			bp.counters[idx] = counter - 1
		}
	}

	if taken {
		bp.btb[idx] = btbEntry{
			valid:  true,
			tag:    bp.tag(pc),
			target: target,
		}
	}
}

// Counter returns the current counter state for pc.
func (bp *BranchPredictor) Counter(pc uint32) uint8 {
	return bp.counters[bp.index(pc)]
}

// Stats returns the branch predictor statistics.
func (bp *BranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Reset clears all predictor state and statistics.
func (bp *BranchPredictor) Reset() {
	for i := range bp.counters {
		bp.counters[i] = WeaklyTaken
	}

	for i := range bp.btb {
		bp.btb[i] = btbEntry{}
	}

	bp.stats = BranchPredictorStats{}
}
