package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
)

// Energy reports the mean total energy over the observed states.
type Energy struct {
	name        string
	gravity     physics.Gravity
	samples     int
	totalEnergy float64
}

func NewEnergy(g physics.Gravity) *Energy {
	return &Energy{
		name:    "energy",
		gravity: g,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s dynamo.State, t float64) {
	e.totalEnergy += e.gravity.TotalEnergy(s)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift reports the largest relative energy error against the first
// observed state.
type EnergyDrift struct {
	name          string
	gravity       physics.Gravity
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(g physics.Gravity) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: g,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s dynamo.State, t float64) {
	energy := e.gravity.TotalEnergy(s)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	e.maxDrift = math.Max(e.maxDrift, physics.RelativeEnergyError(e.initialEnergy, energy))
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Current is the relative error of the latest observed state.
func (e *EnergyDrift) Current() float64 {
	if e.samples == 0 {
		return 0
	}
	return physics.RelativeEnergyError(e.initialEnergy, e.currentEnergy)
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
