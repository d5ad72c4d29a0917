package flatten

import "github.com/Faultbox/meshflat/pkg/scene"

// Materials returns the flattened description of every scene material.
func Materials(s *scene.Scene) map[scene.ID]MaterialInfo {
	out := make(map[scene.ID]MaterialInfo, s.MaterialCount())
	for i := 0; i < s.MaterialCount(); i++ {
		m := s.MaterialAt(i)
		out[m.ID] = materialInfo(m)
	}
	return out
}

func materialInfo(m *scene.Material) MaterialInfo {
	info := MaterialInfo{
		ID:           m.ID,
		Name:         m.Name,
		Ambient:      colorProperty(m, scene.PropAmbientColor),
		Diffuse:      colorProperty(m, scene.PropDiffuseColor),
		Specular:     colorProperty(m, scene.PropSpecularColor),
		Emissive:     colorProperty(m, scene.PropEmissiveColor),
		Shininess:    factorProperty(m, scene.PropShininess, 0),
		Reflectivity: factorProperty(m, scene.PropReflectionFactor, 0),
	}

	info.Opacity = factorProperty(m, scene.PropOpacity, 1)
	if _, ok := m.Factors[scene.PropOpacity]; !ok {
		if t, ok := m.Factors[scene.PropTransparency]; ok {
			info.Opacity.Factor = 1 - t
		}
	}
	if info.Opacity.Texture == "" {
		info.Opacity.Texture = m.Textures[scene.PropTransparency]
	}
	return info
}

func colorProperty(m *scene.Material, name string) ColorProperty {
	return ColorProperty{
		Color:   m.Colors[name],
		Texture: m.Textures[name],
	}
}

func factorProperty(m *scene.Material, name string, def float64) FactorProperty {
	p := FactorProperty{Factor: def, Texture: m.Textures[name]}
	if v, ok := m.Factors[name]; ok {
		p.Factor = v
	}
	return p
}

