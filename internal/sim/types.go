package sim

import "github.com/san-kum/gravsim/internal/dynamo"

type Metric interface {
	Name() string
	Observe(s dynamo.State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s dynamo.State, t float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s dynamo.State, t float64)

func (f ObserverFunc) OnStep(s dynamo.State, t float64) { f(s, t) }

type Config struct {
	Dt    float64
	Steps int
	// SampleEvery keeps every k-th state in Result.States. The initial and
	// final states are always kept. Zero keeps only those two.
	SampleEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.001,
		Steps:         5000,
		SampleEvery:   50,
		ValidateState: true,
	}
}

type Result struct {
	States   []dynamo.State
	Times    []float64
	Energies []float64
	Metrics  map[string]float64

	Final         dynamo.State
	InitialEnergy float64
	FinalEnergy   float64
	// EnergyError is the relative energy error of the final state,
	// PeakEnergyError the largest one seen over the run.
	EnergyError     float64
	PeakEnergyError float64
	StepsTaken      int
	Errors          []error
}
