package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithInclude registers a WGSL snippet that //@oxy:include <name> lines in this shader expand to.
// Per-shader includes take precedence over the built-in library.
//
// Parameters:
//   - name: the include key referenced in the source
//   - source: the WGSL text to inject
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithInclude(name, source string) ShaderBuilderOption {
	return func(s *shader) {
		s.includes[name] = source
	}
}

// WithEntryPoint pins the entry point instead of taking the first one declared for the stage.
// Needed when one WGSL file declares several @compute functions.
//
// Parameters:
//   - name: the WGSL function name
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.entryPoint = name
	}
}
