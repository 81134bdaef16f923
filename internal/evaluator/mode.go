package evaluator

import (
	"fmt"

	"github.com/specialistvlad/mapvar/internal/mapvarerr"
)

// Mode selects what an evaluation generates.
type Mode int

const (
	// GenerateUnconstrained produces initial unconstrained parameter values.
	GenerateUnconstrained Mode = iota + 1
	// GenerateConstrained transforms supplied unconstrained values into
	// constrained ones.
	GenerateConstrained
	// GeneratePosteriorPredictive additionally draws fresh samples of every
	// observed variable.
	GeneratePosteriorPredictive
)

func (m Mode) String() string {
	switch m {
	case GenerateUnconstrained:
		return "unconstrained"
	case GenerateConstrained:
		return "constrained"
	case GeneratePosteriorPredictive:
		return "posterior_predictive"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m >= GenerateUnconstrained && m <= GeneratePosteriorPredictive
}

// recordsConstrained reports whether deterministic values are collected.
func (m Mode) recordsConstrained() bool {
	return m == GenerateConstrained || m == GeneratePosteriorPredictive
}

// ParseMode converts a canonical mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{GenerateUnconstrained, GenerateConstrained, GeneratePosteriorPredictive} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, mapvarerr.New(mapvarerr.ErrInvalidMode, "%q", s)
}

// InitPolicy selects how GenerateUnconstrained produces values.
type InitPolicy int

const (
	// InitZero uses zeros shaped like the node's distribution.
	InitZero InitPolicy = iota
	// InitSampleMean uses the elementwise mean of SampleMeanDraws draws.
	InitSampleMean
)

// SampleMeanDraws is the number of draws averaged by InitSampleMean.
const SampleMeanDraws = 100

func (p InitPolicy) String() string {
	switch p {
	case InitZero:
		return "zero"
	case InitSampleMean:
		return "sample_mean"
	default:
		return fmt.Sprintf("InitPolicy(%d)", int(p))
	}
}

// ParseInitPolicy converts "zero" or "sample_mean" into an InitPolicy.
func ParseInitPolicy(s string) (InitPolicy, error) {
	switch s {
	case "zero", "":
		return InitZero, nil
	case "sample_mean":
		return InitSampleMean, nil
	default:
		return 0, mapvarerr.New(mapvarerr.ErrInvalidInitPolicy, "%q", s)
	}
}
