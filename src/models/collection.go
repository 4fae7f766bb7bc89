package models

// -----------------------------------------------------------------------------
// Collection descriptors (static, read-only after startup)
// -----------------------------------------------------------------------------

// UpdateMode selects between a single parameterized update and a batch update.
type UpdateMode string

const (
	ModeSingle UpdateMode = "single"
	ModeBatch  UpdateMode = "batch"
)

// ParamKind is the input kind of an update parameter.
type ParamKind string

const (
	ParamText   ParamKind = "text"
	ParamSelect ParamKind = "select"
)

// MParamOption is one allowed value of a select parameter.
type MParamOption struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// MParamSpec documents one parameter accepted by an update mode.
type MParamSpec struct {
	Name        string         `json:"name" yaml:"name"`
	Label       string         `json:"label" yaml:"label"`
	Kind        ParamKind      `json:"type" yaml:"type"`
	Required    bool           `json:"required" yaml:"required"`
	Placeholder string         `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []MParamOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// MParamSchema is the ordered parameter list of an update mode.
type MParamSchema []MParamSpec

// MUpdateModeConfig describes whether a mode is supported and which params it takes.
type MUpdateModeConfig struct {
	Enabled     bool         `json:"enabled" yaml:"enabled"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Params      MParamSchema `json:"params" yaml:"params"`
}

// MCollectionDescriptor is the registry entry of one named collection.
type MCollectionDescriptor struct {
	Name         string            `json:"name" yaml:"name"`
	DisplayName  string            `json:"display_name" yaml:"display_name"`
	Description  string            `json:"update_description" yaml:"update_description"`
	SingleUpdate MUpdateModeConfig `json:"single_update" yaml:"single_update"`
	BatchUpdate  MUpdateModeConfig `json:"batch_update" yaml:"batch_update"`
}

// -----------------------------------------------------------------------------

// Mode returns the configuration of the requested update mode.
func (d MCollectionDescriptor) Mode(mode UpdateMode) MUpdateModeConfig {
	if mode == ModeSingle {
		return d.SingleUpdate
	}
	return d.BatchUpdate
}

// -----------------------------------------------------------------------------

// RequiredParams lists the names of the required params of a mode, in order.
func (s MParamSchema) RequiredParams() []string {
	var names []string
	for _, p := range s {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}
