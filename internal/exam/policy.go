package exam

// ResultPolicy holds the configurable percentage thresholds separating
// FAILED, PASSED and MERIT. Cutoffs vary by deployment, so they are
// policy, not constants.
type ResultPolicy struct {
	PassPercent  float64
	MeritPercent float64
}

func DefaultResultPolicy() ResultPolicy {
	return ResultPolicy{PassPercent: 40, MeritPercent: 80}
}

// Classify maps a score over a mark total to a result status. A non-positive
// total can never be passed.
func (p ResultPolicy) Classify(score, totalMarks float64) ResultStatus {
	if totalMarks <= 0 {
		return ResultFailed
	}
	pct := score / totalMarks * 100
	switch {
	case pct >= p.MeritPercent:
		return ResultMerit
	case pct >= p.PassPercent:
		return ResultPassed
	default:
		return ResultFailed
	}
}
