package experiment

import (
	"gonum.org/v1/gonum/stat"
)

// TermMean is the mean scaled value of a single reward term
type TermMean struct {
	Name string
	Mean float64
}

// Summary summarizes an Evaluation by the means and standard
// deviations of its rewards and PPO variables
type Summary struct {
	Reward float64
	Terms  []TermMean

	LogProb, LogProbStd float64
	Value, ValueStd     float64
}

// Summarize returns the Summary of an Evaluation
func Summarize(e Evaluation) Summary {
	s := Summary{
		Reward: e.Rewards.Mean(""),
		Terms:  make([]TermMean, len(e.Rewards.Names)),
	}
	for i, name := range e.Rewards.Names {
		s.Terms[i] = TermMean{Name: name, Mean: e.Rewards.Mean(name)}
	}

	if len(e.Variables) == 0 {
		return s
	}
	logProbs := make([]float64, len(e.Variables))
	values := make([]float64, len(e.Variables))
	for i, v := range e.Variables {
		logProbs[i], values[i] = v.LogProb, v.Value
	}
	s.LogProb, s.LogProbStd = stat.MeanStdDev(logProbs, nil)
	s.Value, s.ValueStd = stat.MeanStdDev(values, nil)
	return s
}
