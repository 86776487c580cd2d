package shader

import (
	"fmt"
	"strings"

	"github.com/ember-gfx/ember-go/engine/device"
)

// sourceVersion heads every assembled shader.
const sourceVersion = "#version 410 core\n"

// assembleSource builds the complete source text for one stage: the version
// header, generated declarations for every attribute, uniform and sampler,
// then the user body.
func assembleSource(stage device.Stage, attributes []Attribute, uniforms []Uniform, textures []Texture, body string) string {
	var b strings.Builder
	b.WriteString(sourceVersion)

	if stage == device.StageVertex {
		for _, a := range attributes {
			fmt.Fprintf(&b, "in %s %s;\n", componentType(a.Components), a.Name)
		}
	}
	for _, u := range uniforms {
		if u.ArraySize > 1 {
			fmt.Fprintf(&b, "uniform %s %s[%d];\n", uniformType(u.Kind), u.Name, u.ArraySize)
		} else {
			fmt.Fprintf(&b, "uniform %s %s;\n", uniformType(u.Kind), u.Name)
		}
	}
	for _, t := range textures {
		fmt.Fprintf(&b, "uniform %s %s;\n", samplerType(t), t.Name)
	}

	if !strings.HasSuffix(body, "\n") && body != "" {
		body += "\n"
	}
	b.WriteString(body)
	return b.String()
}

func componentType(components int) string {
	switch components {
	case 1:
		return "float"
	case 2:
		return "vec2"
	case 3:
		return "vec3"
	default:
		return "vec4"
	}
}

func uniformType(k UniformKind) string {
	switch k {
	case UniformFloat:
		return "float"
	case UniformVec2:
		return "vec2"
	case UniformVec3:
		return "vec3"
	case UniformVec4:
		return "vec4"
	case UniformMat2:
		return "mat2"
	case UniformMat3:
		return "mat3"
	default:
		return "mat4"
	}
}

func samplerType(t Texture) string {
	if t.Cube {
		return "samplerCube"
	}
	return "sampler2D"
}
