// pre_processor.go implements the WGSL include pre-processor. Shader sources reference shared
// snippets with single-line comments of the form
//
//	//@oxy:include <name>
//
// which are replaced by the registered snippet text. The built-in library covers hashing,
// the spatial grid helpers, LUT sampling, the fullscreen triangle, particle sprites, the camera
// uniform and the cursor block. Callers add their own (typically a simulation's Particle
// struct) through WithInclude.
package shader

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-sim/engine/camera"
	"github.com/Carmen-Shannon/oxy-sim/engine/cursor"
)

// annotationPrefix marks a pre-processor directive inside a WGSL line comment.
const annotationPrefix = "@oxy:"

//go:embed assets/random.wgsl
var randomSource string

//go:embed assets/grid.wgsl
var gridSource string

//go:embed assets/lut.wgsl
var lutSource string

//go:embed assets/fullscreen.wgsl
var fullscreenSource string

//go:embed assets/sprite.wgsl
var spriteSource string

// builtinIncludes is the library available to every shader.
var builtinIncludes = map[string]string{
	"random":     randomSource,
	"grid":       gridSource,
	"lut":        lutSource,
	"fullscreen": fullscreenSource,
	"sprite":     spriteSource,
	"camera":     camera.GPUCameraUniformSource,
	"cursor":     cursor.GPUCursorSource,
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// registry maps include names to WGSL source. Seeded from builtinIncludes, then overridden
	// by per-shader includes.
	registry map[string]string
}

// PreProcessor expands //@oxy:include directives in WGSL source.
type PreProcessor interface {
	// Process replaces every include directive with its registered snippet. Each snippet is
	// injected at most once per source so nested or repeated includes do not redeclare structs.
	// Snippets may themselves contain include directives.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if a directive is malformed or names an unknown include
	Process(source string) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor backed by the built-in library plus extra includes.
//
// Parameters:
//   - extra: additional include snippets keyed by name; these win over built-ins
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(extra map[string]string) PreProcessor {
	registry := make(map[string]string, len(builtinIncludes)+len(extra))
	for k, v := range builtinIncludes {
		registry[k] = v
	}
	for k, v := range extra {
		registry[k] = v
	}
	return &preProcessor{registry: registry}
}

func (p *preProcessor) Process(source string) (string, error) {
	seen := make(map[string]bool)
	out, err := p.expand(source, seen, 0)
	if err != nil {
		return "", err
	}
	return out, nil
}

// expand walks source line by line. depth guards against include cycles.
func (p *preProcessor) expand(source string, seen map[string]bool, depth int) (string, error) {
	if depth > 8 {
		return "", fmt.Errorf("include nesting too deep")
	}
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		name, ok, err := parseInclude(line)
		if err != nil {
			return "", fmt.Errorf("line %d: %w", i+1, err)
		}
		if !ok {
			out = append(out, line)
			continue
		}
		if seen[name] {
			continue
		}
		snippet, found := p.registry[name]
		if !found {
			return "", fmt.Errorf("line %d: unknown include %q", i+1, name)
		}
		seen[name] = true
		expanded, err := p.expand(snippet, seen, depth+1)
		if err != nil {
			return "", fmt.Errorf("include %q: %w", name, err)
		}
		out = append(out, expanded)
	}
	return strings.Join(out, "\n"), nil
}

// parseInclude recognises `//@oxy:include <name>`. Lines without the prefix are not directives.
func parseInclude(line string) (string, bool, error) {
	trimmed := strings.TrimSpace(line)
	body, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return "", false, nil
	}
	body, ok = strings.CutPrefix(strings.TrimSpace(body), annotationPrefix)
	if !ok {
		return "", false, nil
	}
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return "", false, fmt.Errorf("empty @oxy: directive")
	}
	if fields[0] != "include" {
		return "", false, fmt.Errorf("unknown directive %q", fields[0])
	}
	if len(fields) != 2 {
		return "", false, fmt.Errorf("@oxy:include takes exactly one argument")
	}
	return fields[1], true, nil
}
