// Package cising implements a Metropolis Monte Carlo simulation of the classical 2D Ising model.
//
// References:
//   - Equation of State Calculations by Fast Computing Machines, Metropolis et al.
//   - Finite size scaling analysis of Ising model block distribution functions, Kurt Binder
package cising

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
)

// Config holds the parameters of a simulation run.
// A Config is passed by value and never mutated after a run starts.
type Config struct {
	// L is the linear system size.
	L int
	// J is the coupling constant, ferromagnetic for J > 0.
	J float64
	// Thermalization is the number of sweeps discarded before sampling.
	Thermalization int
	// Production is the number of measured sweeps.
	Production int
	// SamplingInterval keeps every k-th production sweep.
	SamplingInterval int
}

// DefaultConfig returns the configuration used for the paper runs.
func DefaultConfig(l int) Config {
	return Config{
		L:                l,
		J:                1,
		Thermalization:   1000,
		Production:       8000,
		SamplingInterval: 20,
	}
}

func (c Config) Validate() error {
	if c.L <= 0 {
		return errors.Errorf("system size %d", c.L)
	}
	if c.Thermalization < 0 {
		return errors.Errorf("thermalization sweeps %d", c.Thermalization)
	}
	if c.Production < 0 {
		return errors.Errorf("production sweeps %d", c.Production)
	}
	if c.SamplingInterval < 1 {
		return errors.Errorf("sampling interval %d", c.SamplingInterval)
	}
	return nil
}

// Lattice is an L x L grid of +-1 spins with periodic boundary conditions.
// Its Hamiltonian is H = -J * sum_{<i,j>} s_i * s_j.
// A Lattice exclusively owns its random source, so that independent runs
// never share a random stream.
type Lattice struct {
	l     int
	j     float64
	spins []int8
	rng   *rand.Rand
}

// NewLattice creates an L x L lattice with each spin independently +1 or -1
// with equal probability.
func NewLattice(l int, j float64, rng *rand.Rand) (*Lattice, error) {
	if l <= 0 {
		return nil, errors.Errorf("system size %d", l)
	}
	lat := &Lattice{l: l, j: j, spins: make([]int8, l*l), rng: rng}
	for i := range lat.spins {
		switch rng.IntN(2) {
		case 0:
			lat.spins[i] = -1
		default:
			lat.spins[i] = 1
		}
	}
	return lat, nil
}

// L returns the linear system size.
func (lat *Lattice) L() int { return lat.l }

// N returns the number of spins L*L.
func (lat *Lattice) N() int { return lat.l * lat.l }

// At returns the spin at (i, j).
func (lat *Lattice) At(i, j int) int8 {
	return lat.spins[i*lat.l+j]
}

// Set sets the spin at (i, j).
func (lat *Lattice) Set(i, j int, s int8) {
	if !(s == 1 || s == -1) {
		panic(fmt.Sprintf("%d", s))
	}
	lat.spins[i*lat.l+j] = s
}

// Flip negates the spin at (i, j).
func (lat *Lattice) Flip(i, j int) {
	lat.spins[i*lat.l+j] *= -1
}

// TotalEnergy computes the energy of the current configuration by summing
// the right and down bond of every cell, so that each periodic bond is
// counted exactly once. This is the O(L^2) reference calculation against
// which the incremental FlipDelta is checked.
func (lat *Lattice) TotalEnergy() float64 {
	l := lat.l
	var e float64
	for i := 0; i < l; i++ {
		for j := 0; j < l; j++ {
			s := lat.spins[i*l+j]
			right := lat.spins[i*l+(j+1)%l]
			down := lat.spins[((i+1)%l)*l+j]
			e += -lat.j * float64(s) * float64(right+down)
		}
	}
	return e
}

// FlipDelta returns the energy change that flipping the spin at (i, j)
// would cause, from its four periodic neighbors only. It is always equal to
// the TotalEnergy difference across a single Flip(i, j).
func (lat *Lattice) FlipDelta(i, j int) float64 {
	l := lat.l
	s := lat.spins[i*l+j]
	neighbors := lat.spins[i*l+(j+1)%l] +
		lat.spins[i*l+(j-1+l)%l] +
		lat.spins[((i+1)%l)*l+j] +
		lat.spins[((i-1+l)%l)*l+j]
	return 2 * lat.j * float64(s) * float64(neighbors)
}

// Magnetization returns the absolute total magnetization |sum of all spins|.
func (lat *Lattice) Magnetization() float64 {
	var m int
	for _, s := range lat.spins {
		m += int(s)
	}
	return math.Abs(float64(m))
}

// Sweep performs one Monte Carlo sweep of L^2 single-spin-flip attempts at
// inverse temperature beta. Cells are drawn uniformly with replacement, so
// one sweep is not one attempt per distinct cell. A flip is accepted
// unconditionally when it does not raise the energy; the exponential is only
// evaluated otherwise, which keeps the sweep well defined at beta -> inf.
func (lat *Lattice) Sweep(beta float64) {
	n := lat.l * lat.l
	for range n {
		i := lat.rng.IntN(lat.l)
		j := lat.rng.IntN(lat.l)

		dE := lat.FlipDelta(i, j)
		if dE <= 0 || lat.rng.Float64() < math.Exp(-beta*dE) {
			lat.Flip(i, j)
		}
	}
}

// Samples are the per-sweep measurements retained during the production
// phase of a run, one record per retained sweep.
type Samples struct {
	Energy        []float64
	Magnetization []float64
}

// Run simulates a fresh lattice at the given temperature: Thermalization
// sweeps are discarded, then every SamplingInterval-th production sweep is
// measured, starting with sweep 0.
func Run(cfg Config, temperature float64, rng *rand.Rand) (Samples, error) {
	if err := cfg.Validate(); err != nil {
		return Samples{}, errors.Wrap(err, "")
	}
	if temperature <= 0 {
		return Samples{}, errors.Errorf("temperature %f", temperature)
	}

	lat, err := NewLattice(cfg.L, cfg.J, rng)
	if err != nil {
		return Samples{}, errors.Wrap(err, "")
	}
	beta := 1 / temperature

	for range cfg.Thermalization {
		lat.Sweep(beta)
	}

	numSamples := (cfg.Production + cfg.SamplingInterval - 1) / cfg.SamplingInterval
	samples := Samples{
		Energy:        make([]float64, 0, numSamples),
		Magnetization: make([]float64, 0, numSamples),
	}
	for sweep := range cfg.Production {
		lat.Sweep(beta)

		if sweep%cfg.SamplingInterval == 0 {
			samples.Energy = append(samples.Energy, lat.TotalEnergy())
			samples.Magnetization = append(samples.Magnetization, lat.Magnetization())
		}
	}
	return samples, nil
}
