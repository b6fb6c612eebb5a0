package domain

// PortTemplate describes a fixed port a definition instantiates.
type PortTemplate struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// MaxConnections of zero selects the direction default.
	MaxConnections int    `json:"max_connections,omitempty" yaml:"max_connections,omitempty" mapstructure:"max_connections"`
	DataType       string `json:"data_type,omitempty" yaml:"data_type,omitempty" mapstructure:"data_type"`
}

// Definition is an instantiable node type supplied by a catalog.
// The engine reads definitions and never mutates them.
type Definition struct {
	ID            string  `json:"id" yaml:"id" mapstructure:"id"`
	Title         string  `json:"title" yaml:"title" mapstructure:"title"`
	Category      string  `json:"category" yaml:"category" mapstructure:"category"`
	Icon          string  `json:"icon,omitempty" yaml:"icon,omitempty" mapstructure:"icon"`
	DefaultWidth  float64 `json:"default_width,omitempty" yaml:"default_width,omitempty" mapstructure:"default_width"`
	DefaultHeight float64 `json:"default_height,omitempty" yaml:"default_height,omitempty" mapstructure:"default_height"`
	MinWidth      float64 `json:"min_width,omitempty" yaml:"min_width,omitempty" mapstructure:"min_width"`
	MinHeight     float64 `json:"min_height,omitempty" yaml:"min_height,omitempty" mapstructure:"min_height"`

	DefaultInputs  []PortTemplate `json:"default_inputs,omitempty" yaml:"default_inputs,omitempty" mapstructure:"default_inputs"`
	DefaultOutputs []PortTemplate `json:"default_outputs,omitempty" yaml:"default_outputs,omitempty" mapstructure:"default_outputs"`

	Config            map[string]any `json:"config,omitempty" yaml:"config,omitempty" mapstructure:"config"`
	DefaultDataValues map[string]any `json:"default_data_values,omitempty" yaml:"default_data_values,omitempty" mapstructure:"default_data_values"`
}

// Size returns the initial node size, falling back to the engine defaults.
func (d Definition) Size() (float64, float64) {
	w, h := d.DefaultWidth, d.DefaultHeight
	if w <= 0 {
		w = DefaultNodeWidth
	}
	if h <= 0 {
		h = DefaultNodeHeight
	}
	return w, h
}

// Clone returns a deep copy of the definition.
func (d Definition) Clone() Definition {
	out := d
	out.DefaultInputs = append([]PortTemplate(nil), d.DefaultInputs...)
	out.DefaultOutputs = append([]PortTemplate(nil), d.DefaultOutputs...)
	out.Config = CloneData(d.Config)
	out.DefaultDataValues = CloneData(d.DefaultDataValues)
	return out
}
