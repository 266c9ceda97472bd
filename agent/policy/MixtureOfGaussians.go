// Package policy implements the action distribution of the walking
// policy on the Go side of the computational graph: sampling, mode
// selection and log-density evaluation of a per-joint mixture of
// Gaussians.
package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gowalk/utils/floatutils"
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Softplus computes log(1 + exp(x)) without overflowing for large |x|
func Softplus(x float64) float64 {
	return math.Max(x, 0) + math.Log1p(math.Exp(-math.Abs(x)))
}

// SpreadTransform converts a raw network output into a standard
// deviation. The order of operations is softplus, then floor, then
// scale, then ceiling, which keeps the spread within
// [minStd * varScale, maxStd] for any finite raw value.
func SpreadTransform(raw, minStd, maxStd, varScale float64) float64 {
	return math.Min((Softplus(raw)+minStd)*varScale, maxStd)
}

// MixtureOfGaussians is a per-joint mixture of one dimensional
// Gaussians. Row i of each matrix holds the component means, standard
// deviations and unnormalized logits of joint i.
type MixtureOfGaussians struct {
	Means  *mat.Dense
	Stds   *mat.Dense
	Logits *mat.Dense
}

// NewMixtureOfGaussians returns a new MixtureOfGaussians. All arguments
// must be joints × mixtures, and all standard deviations must be
// positive.
func NewMixtureOfGaussians(means, stds, logits *mat.Dense) (
	*MixtureOfGaussians, error) {
	r, c := means.Dims()
	if sr, sc := stds.Dims(); sr != r || sc != c {
		return nil, fmt.Errorf("newMixtureOfGaussians: stds shape "+
			"\n\twant(%v, %v) \n\thave(%v, %v)", r, c, sr, sc)
	}
	if lr, lc := logits.Dims(); lr != r || lc != c {
		return nil, fmt.Errorf("newMixtureOfGaussians: logits shape "+
			"\n\twant(%v, %v) \n\thave(%v, %v)", r, c, lr, lc)
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if s := stds.At(i, j); !(s > 0) || math.IsInf(s, 0) {
				return nil, fmt.Errorf("newMixtureOfGaussians: standard "+
					"deviation at (%v, %v) must be positive and finite, "+
					"have(%v)", i, j, s)
			}
		}
	}

	return &MixtureOfGaussians{means, stds, logits}, nil
}

// Joints returns the number of joints the distribution is over
func (m *MixtureOfGaussians) Joints() int {
	r, _ := m.Means.Dims()
	return r
}

// Mixtures returns the number of components per joint
func (m *MixtureOfGaussians) Mixtures() int {
	_, c := m.Means.Dims()
	return c
}

// Weights returns the normalized mixture weights
func (m *MixtureOfGaussians) Weights() *mat.Dense {
	r, c := m.Logits.Dims()
	weights := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		logits := m.Logits.RawRowView(i)
		lse := floats.LogSumExp(logits)
		for j, l := range logits {
			weights.Set(i, j, math.Exp(l-lse))
		}
	}
	return weights
}

// LogProbs returns the log density of action under the mixture of
// each joint
func (m *MixtureOfGaussians) LogProbs(action []float64) []float64 {
	if len(action) != m.Joints() {
		panic(fmt.Sprintf("logProbs: action dimensions \n\twant(%v) "+
			"\n\thave(%v)", m.Joints(), len(action)))
	}

	logProbs := make([]float64, m.Joints())
	comp := make([]float64, m.Mixtures())
	for i, a := range action {
		logits := m.Logits.RawRowView(i)
		for j := range comp {
			normal := distuv.Normal{Mu: m.Means.At(i, j), Sigma: m.Stds.At(i, j)}
			comp[j] = logits[j] + normal.LogProb(a)
		}
		logProbs[i] = floats.LogSumExp(comp) - floats.LogSumExp(logits)
	}
	return logProbs
}

// LogProb returns the log density of action, summed across joints
func (m *MixtureOfGaussians) LogProb(action []float64) float64 {
	return floats.Sum(m.LogProbs(action))
}

// Mode returns the mean of the highest weighted component of each
// joint. Ties are broken towards the lowest component index.
func (m *MixtureOfGaussians) Mode() []float64 {
	mode := make([]float64, m.Joints())
	for i := range mode {
		mode[i] = m.Means.At(i, floatutils.Argmax(m.Logits.RawRowView(i)))
	}
	return mode
}

// Sample draws an action from the distribution. Equal keys result in
// equal samples.
func (m *MixtureOfGaussians) Sample(key randutils.Key) []float64 {
	compKey, valueKey := key.Split2()
	compSrc, valueSrc := compKey.Source(), valueKey.Source()

	weights := m.Weights()
	action := make([]float64, m.Joints())
	for i := range action {
		cat := distuv.NewCategorical(weights.RawRowView(i), compSrc)
		j := int(cat.Rand())

		normal := distuv.Normal{
			Mu:    m.Means.At(i, j),
			Sigma: m.Stds.At(i, j),
			Src:   valueSrc,
		}
		action[i] = normal.Rand()
	}
	return action
}
