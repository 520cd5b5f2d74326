// Package shader holds compiled SPIR-V shader stages and their entry points
// for ray-tracing pipeline creation.
package shader

import (
	"fmt"
	"os"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
)

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	stage      driver.ShaderStage
	code       []byte
	entryPoint string
}

// Shader defines the interface for one compiled shader stage. It exposes the
// shader's unique key, its pipeline stage, the SPIR-V binary, and the entry
// point name used at pipeline creation.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Stage retrieves the pipeline stage this shader executes in.
	//
	// Returns:
	//   - driver.ShaderStage: the shader stage
	Stage() driver.ShaderStage

	// Code retrieves the SPIR-V binary of the shader.
	//
	// Returns:
	//   - []byte: the SPIR-V code, length a multiple of four
	Code() []byte

	// EntryPoint retrieves the entry point name of the shader.
	//
	// Returns:
	//   - string: the entry point, "main" unless overridden
	EntryPoint() string
}

var _ Shader = &shader{}

// NewShader creates a new Shader instance configured with the provided options.
// The SPIR-V code must be set either directly or from a file, and its length
// must be a multiple of four bytes.
//
// Parameters:
//   - options: variadic list of ShaderBuilderOption functions to configure the shader
//
// Returns:
//   - Shader: a new Shader instance
//   - error: an error if the code is missing or malformed
func NewShader(options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		entryPoint: "main",
	}
	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if len(s.code) == 0 {
		return nil, fmt.Errorf("shader %q has no SPIR-V code", s.key)
	}
	if len(s.code)%4 != 0 {
		return nil, fmt.Errorf("shader %q SPIR-V length %d is not a multiple of 4", s.key, len(s.code))
	}
	return s, nil
}

// loadFile reads a SPIR-V binary from disk.
func loadFile(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader file %q: %w", path, err)
	}
	return code, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Stage() driver.ShaderStage {
	return s.stage
}

func (s *shader) Code() []byte {
	return s.code
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}
