package shader

import "github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"

// ShaderBuilderOption is a function that configures a shader instance during construction.
type ShaderBuilderOption func(*shader) error

// WithKey is an option builder that sets the unique identifier of the shader.
//
// Parameters:
//   - key: the identifier for the shader
//
// Returns:
//   - ShaderBuilderOption: a function that applies the key option to a shader
func WithKey(key string) ShaderBuilderOption {
	return func(s *shader) error {
		s.key = key
		return nil
	}
}

// WithStage is an option builder that sets the pipeline stage of the shader.
//
// Parameters:
//   - stage: the shader stage
//
// Returns:
//   - ShaderBuilderOption: a function that applies the stage option to a shader
func WithStage(stage driver.ShaderStage) ShaderBuilderOption {
	return func(s *shader) error {
		s.stage = stage
		return nil
	}
}

// WithCode is an option builder that sets the SPIR-V binary directly.
//
// Parameters:
//   - code: the SPIR-V code
//
// Returns:
//   - ShaderBuilderOption: a function that applies the code option to a shader
func WithCode(code []byte) ShaderBuilderOption {
	return func(s *shader) error {
		s.code = code
		return nil
	}
}

// WithFile is an option builder that loads the SPIR-V binary from disk.
//
// Parameters:
//   - path: the path of the compiled .spv file
//
// Returns:
//   - ShaderBuilderOption: a function that loads and applies the file option to a shader
func WithFile(path string) ShaderBuilderOption {
	return func(s *shader) error {
		code, err := loadFile(path)
		if err != nil {
			return err
		}
		s.code = code
		return nil
	}
}

// WithEntryPoint is an option builder that overrides the entry point name.
//
// Parameters:
//   - entryPoint: the entry point symbol in the SPIR-V module
//
// Returns:
//   - ShaderBuilderOption: a function that applies the entry point option to a shader
func WithEntryPoint(entryPoint string) ShaderBuilderOption {
	return func(s *shader) error {
		s.entryPoint = entryPoint
		return nil
	}
}
