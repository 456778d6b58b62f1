// Package generate produces initial particle layouts, species assignments and force matrices
// from a seedable random source, and parses cellular-automaton rulestrings.
package generate

import (
	"math/rand/v2"
	"slices"
)

// NewRand returns a deterministic PCG source for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Position selects how initial positions are laid out.
type Position string

const (
	PositionRandom         Position = "Random"
	PositionCenter         Position = "Center"
	PositionUniformCircle  Position = "UniformCircle"
	PositionCenteredCircle Position = "CenteredCircle"
	PositionRing           Position = "Ring"
	PositionRainbowRing    Position = "RainbowRing"
	PositionColorBattle    Position = "ColorBattle"
	PositionColorWheel     Position = "ColorWheel"
	PositionLine           Position = "Line"
	PositionSpiral         Position = "Spiral"
	PositionRainbowSpiral  Position = "RainbowSpiral"
)

// AllPositions lists every Position in declaration order.
var AllPositions = []Position{
	PositionRandom, PositionCenter, PositionUniformCircle, PositionCenteredCircle, PositionRing,
	PositionRainbowRing, PositionColorBattle, PositionColorWheel, PositionLine, PositionSpiral,
	PositionRainbowSpiral,
}

// ParsePosition returns the generator for name, or Random for unknown names.
func ParsePosition(name string) (Position, bool) {
	if p := Position(name); slices.Contains(AllPositions, p) {
		return p, true
	}
	return PositionRandom, false
}

// Type selects how species are assigned.
type Type string

const (
	TypeRandom             Type = "Random"
	TypeRandomize10Percent Type = "Randomize10Percent"
	TypeSlices             Type = "Slices"
	TypeOnion              Type = "Onion"
	TypeStripes            Type = "Stripes"
	TypeLineByLine         Type = "LineByLine"
	TypeSpiral             Type = "Spiral"
)

// AllTypes lists every Type in declaration order.
var AllTypes = []Type{TypeRandom, TypeRandomize10Percent, TypeSlices, TypeOnion, TypeStripes, TypeLineByLine, TypeSpiral}

// ParseType returns the generator for name, or Random for unknown names.
func ParseType(name string) (Type, bool) {
	if t := Type(name); slices.Contains(AllTypes, t) {
		return t, true
	}
	return TypeRandom, false
}

// spatial reports whether the type generator reads positions.
func (t Type) spatial() bool {
	switch t {
	case TypeSlices, TypeOnion, TypeStripes, TypeSpiral:
		return true
	}
	return false
}

// Matrix selects a force-matrix pattern.
type Matrix string

const (
	MatrixRandom            Matrix = "Random"
	MatrixSymmetry          Matrix = "Symmetry"
	MatrixChains            Matrix = "Chains"
	MatrixSnakes            Matrix = "Snakes"
	MatrixZero              Matrix = "Zero"
	MatrixPredatorPrey      Matrix = "PredatorPrey"
	MatrixSymbiosis         Matrix = "Symbiosis"
	MatrixTerritorial       Matrix = "Territorial"
	MatrixMagnetic          Matrix = "Magnetic"
	MatrixCrystal           Matrix = "Crystal"
	MatrixWave              Matrix = "Wave"
	MatrixHierarchy         Matrix = "Hierarchy"
	MatrixClique            Matrix = "Clique"
	MatrixAntiClique        Matrix = "AntiClique"
	MatrixFibonacci         Matrix = "Fibonacci"
	MatrixPrime             Matrix = "Prime"
	MatrixFractal           Matrix = "Fractal"
	MatrixRockPaperScissors Matrix = "RockPaperScissors"
	MatrixCooperation       Matrix = "Cooperation"
	MatrixCompetition       Matrix = "Competition"
)

// AllMatrices lists every Matrix in declaration order.
var AllMatrices = []Matrix{
	MatrixRandom, MatrixSymmetry, MatrixChains, MatrixSnakes, MatrixZero, MatrixPredatorPrey,
	MatrixSymbiosis, MatrixTerritorial, MatrixMagnetic, MatrixCrystal, MatrixWave, MatrixHierarchy,
	MatrixClique, MatrixAntiClique, MatrixFibonacci, MatrixPrime, MatrixFractal,
	MatrixRockPaperScissors, MatrixCooperation, MatrixCompetition,
}

// ParseMatrix returns the generator for name, or Random for unknown names.
func ParseMatrix(name string) (Matrix, bool) {
	if m := Matrix(name); slices.Contains(AllMatrices, m) {
		return m, true
	}
	return MatrixRandom, false
}
