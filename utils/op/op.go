// Package op provides extended Gorgonia graph operations.
//
// LogSumExp adapted from aunum/gold on GitHub
package op

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// scalar returns a new float64 scalar node holding v
func scalar(g *G.ExprGraph, v float64, name string) *G.Node {
	return G.NewScalar(g, G.Float64, G.WithValue(v), G.WithName(name))
}

// Softplus computes log(1 + exp(x)) element-wise in the overflow-safe
// form max(x, 0) + log1p(exp(-|x|))
func Softplus(x *G.Node) (*G.Node, error) {
	pos, err := G.Rectify(x)
	if err != nil {
		return nil, fmt.Errorf("softplus: %v", err)
	}

	tail, err := G.Abs(x)
	if err != nil {
		return nil, fmt.Errorf("softplus: %v", err)
	}
	tail = G.Must(G.Neg(tail))
	tail = G.Must(G.Exp(tail))
	tail = G.Must(G.Log1p(tail))

	return G.Add(pos, tail)
}

// ClipMax clips the value of a node from above, element-wise. The
// clipping is a masked select rather than a branch:
//
//	x * [x < max] + max * (1 - [x < max])
//
// Since Inf * 0 is NaN, value must not hold +Inf.
func ClipMax(value *G.Node, max float64) (*G.Node, error) {
	g := value.Graph()
	maxNode := scalar(g, max, fmt.Sprintf("clip_max_%v", value.ID()))
	one := scalar(g, 1.0, fmt.Sprintf("clip_one_%v", value.ID()))

	mask, err := G.Lt(value, maxNode, true)
	if err != nil {
		return nil, fmt.Errorf("clipMax: %v", err)
	}
	keep, err := G.HadamardProd(value, mask)
	if err != nil {
		return nil, fmt.Errorf("clipMax: %v", err)
	}

	invMask, err := G.Sub(one, mask)
	if err != nil {
		return nil, fmt.Errorf("clipMax: %v", err)
	}
	clipped, err := G.HadamardProd(maxNode, invMask)
	if err != nil {
		return nil, fmt.Errorf("clipMax: %v", err)
	}

	return G.Add(keep, clipped)
}

// SpreadTransform converts raw network outputs into standard
// deviations:
//
//	min((softplus(raw) + minStd) * varScale, maxStd)
//
// The order of operations must not change. varScale must be positive.
// Before scaling, values are clipped at maxStd / varScale, which leaves
// the result unchanged but keeps the product from overflowing to +Inf
// for very large raw outputs.
func SpreadTransform(raw *G.Node, minStd, maxStd,
	varScale float64) (*G.Node, error) {
	if !(varScale > 0) {
		return nil, fmt.Errorf("spreadTransform: variance scale must be "+
			"positive, have(%v)", varScale)
	}
	g := raw.Graph()

	std, err := Softplus(raw)
	if err != nil {
		return nil, fmt.Errorf("spreadTransform: %v", err)
	}

	floor := scalar(g, minStd, fmt.Sprintf("min_std_%v", raw.ID()))
	std, err = G.Add(std, floor)
	if err != nil {
		return nil, fmt.Errorf("spreadTransform: %v", err)
	}

	if std, err = ClipMax(std, maxStd/varScale); err != nil {
		return nil, fmt.Errorf("spreadTransform: %v", err)
	}

	scale := scalar(g, varScale, fmt.Sprintf("var_scale_%v", raw.ID()))
	std, err = G.HadamardProd(std, scale)
	if err != nil {
		return nil, fmt.Errorf("spreadTransform: %v", err)
	}

	return ClipMax(std, maxStd)
}

// LogSumExp calculates the log of the summation of exponentials of
// all logits along the given axis.
//
// Use this in place of Gorgonia's LogSumExp, which has the final sum
// and log interchanged, which is incorrect.
func LogSumExp(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{byte(along)}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}

// GaussianLogPdf calculates, element-wise, the log density of actions
// under Gaussians with means mean and standard deviations std. All
// arguments must have the same shape.
func GaussianLogPdf(mean, std, actions *G.Node) *G.Node {
	graph := mean.Graph()
	if graph != std.Graph() || graph != actions.Graph() {
		panic("gaussianLogPdf: all nodes must share the same graph")
	}

	negativeHalf := G.NewConstant(-0.5)
	normalizer := G.NewConstant(0.5 * math.Log(2*math.Pi))

	z := G.Must(G.Sub(actions, mean))
	z = G.Must(G.HadamardDiv(z, std))
	exponent := G.Must(G.Square(z))
	exponent = G.Must(G.HadamardProd(negativeHalf, exponent))

	logStd := G.Must(G.Log(std))
	terms := G.Must(G.Add(logStd, normalizer))

	return G.Must(G.Sub(exponent, terms))
}

// MixtureLogPdf calculates the log density of actions under a per-row
// mixture of Gaussians. The mean, std and logits nodes must be
// rows × mixtures, and actions must hold each row's action repeated
// across the mixture columns. The per-row log densities are returned
// together with their sum.
func MixtureLogPdf(mean, std, logits, actions *G.Node) (perRow,
	total *G.Node, err error) {
	if !mean.Shape().Eq(std.Shape()) || !mean.Shape().Eq(logits.Shape()) ||
		!mean.Shape().Eq(actions.Shape()) {
		return nil, nil, fmt.Errorf("mixtureLogPdf: shape mismatch mean=%v "+
			"std=%v logits=%v actions=%v", mean.Shape(), std.Shape(),
			logits.Shape(), actions.Shape())
	}

	comp := GaussianLogPdf(mean, std, actions)
	weighted, err := G.Add(logits, comp)
	if err != nil {
		return nil, nil, fmt.Errorf("mixtureLogPdf: %v", err)
	}

	perRow, err = G.Sub(LogSumExp(weighted, 1), LogSumExp(logits, 1))
	if err != nil {
		return nil, nil, fmt.Errorf("mixtureLogPdf: %v", err)
	}

	total, err = G.Sum(perRow)
	if err != nil {
		return nil, nil, fmt.Errorf("mixtureLogPdf: %v", err)
	}
	return perRow, total, nil
}

// Where selects element-wise between onTrue and onFalse based on the
// 0/1 scalar flag:
//
//	onTrue * flag + onFalse * (1 - flag)
//
// The selection never branches, so the result is exactly onTrue when
// flag is 1 and exactly onFalse when flag is 0, provided both inputs
// are finite.
func Where(flag, onTrue, onFalse *G.Node) (*G.Node, error) {
	if !onTrue.Shape().Eq(onFalse.Shape()) {
		return nil, fmt.Errorf("where: shape mismatch %v and %v",
			onTrue.Shape(), onFalse.Shape())
	}
	if !flag.IsScalar() {
		return nil, fmt.Errorf("where: flag must be a scalar, have "+
			"shape %v", flag.Shape())
	}

	one := scalar(flag.Graph(), 1.0, fmt.Sprintf("where_one_%v_%v",
		flag.ID(), onFalse.ID()))
	notFlag, err := G.Sub(one, flag)
	if err != nil {
		return nil, fmt.Errorf("where: %v", err)
	}

	t, err := G.HadamardProd(flag, onTrue)
	if err != nil {
		return nil, fmt.Errorf("where: %v", err)
	}
	f, err := G.HadamardProd(notFlag, onFalse)
	if err != nil {
		return nil, fmt.Errorf("where: %v", err)
	}
	return G.Add(t, f)
}
