package voxmesh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gekko3d/voxmesh/mesher"
)

var (
	ErrUnknownAlgorithm = errors.New("voxmesh: unknown algorithm")
	ErrInvalidConfig    = errors.New("voxmesh: invalid config")
)

type Algorithm uint8

const (
	AlgorithmBlocky Algorithm = iota
	AlgorithmMarchingCubes
	AlgorithmSurfaceNets
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmBlocky:
		return "blocky"
	case AlgorithmMarchingCubes:
		return "marching-cubes"
	case AlgorithmSurfaceNets:
		return "surface-nets"
	}
	return fmt.Sprintf("Algorithm(%d)", uint8(a))
}

// ParseAlgorithm accepts the names printed by String plus the short forms
// "mc" and "surfnet", case insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blocky":
		return AlgorithmBlocky, nil
	case "marching-cubes", "mc":
		return AlgorithmMarchingCubes, nil
	case "surface-nets", "surfnet":
		return AlgorithmSurfaceNets, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

// Config selects a mesher and its parameters. Smooth only applies to marching
// cubes and Iterations only to surface nets.
type Config struct {
	Algorithm  Algorithm
	Size       int
	Smooth     bool
	Iterations uint16
}

func DefaultConfig(alg Algorithm) Config {
	cfg := Config{Algorithm: alg, Size: 64}
	switch alg {
	case AlgorithmMarchingCubes:
		cfg.Smooth = true
	case AlgorithmSurfaceNets:
		cfg.Iterations = 7
	}
	return cfg
}

func (c Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmBlocky, AlgorithmMarchingCubes, AlgorithmSurfaceNets:
	default:
		return fmt.Errorf("%w: %v", ErrUnknownAlgorithm, c.Algorithm)
	}
	if c.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, c.Size)
	}
	return nil
}

func (c Config) NewMesher() (mesher.Mesher, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Algorithm {
	case AlgorithmMarchingCubes:
		return mesher.MarchingCubes{Size: c.Size, Smooth: c.Smooth}, nil
	case AlgorithmSurfaceNets:
		return mesher.SurfaceNets{Size: c.Size, Iterations: c.Iterations}, nil
	default:
		return mesher.Blocky{Size: c.Size}, nil
	}
}
