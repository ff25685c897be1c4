// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Dependency is one entry in the dependency set: a package name plus an
// optional pip version constraint (e.g. "==0.4.24" or ">=2.2").
type Dependency struct {
	Name       string `json:"name" yaml:"name"`
	Constraint string `json:"constraint,omitempty" yaml:"constraint,omitempty"`
}

// Specifier renders the pip requirement string for the dependency.
func (d Dependency) Specifier() string {
	if d.Constraint == "" {
		return d.Name
	}
	return d.Name + d.Constraint
}

// Manifest is the declared dependency set. Order is preserved: packages
// install in the order they are declared.
type Manifest struct {
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
}

// Specifiers returns the pip requirement strings in declaration order.
func (m Manifest) Specifiers() []string {
	specs := make([]string, 0, len(m.Dependencies))
	for _, d := range m.Dependencies {
		specs = append(specs, d.Specifier())
	}
	return specs
}
