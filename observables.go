package cising

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// OnsagerTc is the exact critical temperature 2/ln(1+sqrt(2)) of the
// infinite 2D Ising model.
var OnsagerTc = 2 / math.Log(1+math.Sqrt2)

// Default Binder cumulant band bracketing the critical temperature.
const (
	DefaultBandLow  = 0.55
	DefaultBandHigh = 0.65
)

// Observables are the thermodynamic quantities estimated from the samples of
// one temperature.
type Observables struct {
	// HeatCapacity is C = beta^2 * N * Var(E).
	HeatCapacity float64
	// Susceptibility is chi = beta * N * Var(M).
	Susceptibility float64
	// BinderCumulant is U4 = 1 - <M^4>/(3*<M^2>^2).
	// It is NaN when <M^2> is zero.
	BinderCumulant float64
	// EnergyDensity is <E>/N.
	EnergyDensity float64
	// MagnetizationDensity is <M>/N.
	MagnetizationDensity float64
}

// ComputeObservables reduces the samples of one temperature to scalar
// observables, where n is the number of spins L^2.
func ComputeObservables(samples Samples, temperature float64, n int) (Observables, error) {
	if temperature <= 0 {
		return Observables{}, errors.Errorf("temperature %f", temperature)
	}
	if n <= 0 {
		return Observables{}, errors.Errorf("system size %d", n)
	}
	if len(samples.Energy) == 0 || len(samples.Energy) != len(samples.Magnetization) {
		return Observables{}, errors.Errorf("%d energy %d magnetization samples", len(samples.Energy), len(samples.Magnetization))
	}

	beta := 1 / temperature
	nf := float64(n)

	eMean := stat.Mean(samples.Energy, nil)
	eVar := stat.MomentAbout(2, samples.Energy, eMean, nil)

	mMean := stat.Mean(samples.Magnetization, nil)
	mVar := stat.MomentAbout(2, samples.Magnetization, mMean, nil)

	// Raw moments about zero for the Binder cumulant.
	m2 := stat.MomentAbout(2, samples.Magnetization, 0, nil)
	m4 := stat.MomentAbout(4, samples.Magnetization, 0, nil)

	return Observables{
		HeatCapacity:         beta * beta * nf * eVar,
		Susceptibility:       beta * nf * mVar,
		BinderCumulant:       1 - m4/(3*m2*m2),
		EnergyDensity:        eMean / nf,
		MagnetizationDensity: mMean / nf,
	}, nil
}

// CriticalBand returns the lowest and highest temperature whose Binder
// cumulant lies in the closed band [low, high]. ok is false when no value
// falls in the band, which is an expected outcome for small systems or
// narrow scans. NaN cumulants never match.
func CriticalBand(temperatures, u4 []float64, low, high float64) (tLow, tHigh float64, ok bool) {
	if len(temperatures) != len(u4) {
		panic(fmt.Sprintf("%d %d", len(temperatures), len(u4)))
	}

	tLow, tHigh = math.Inf(1), math.Inf(-1)
	for k, u := range u4 {
		// Positive comparison, so that NaN cumulants never match.
		if !(u >= low && u <= high) {
			continue
		}
		tLow = min(tLow, temperatures[k])
		tHigh = max(tHigh, temperatures[k])
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return tLow, tHigh, true
}
