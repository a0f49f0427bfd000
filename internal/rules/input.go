package rules

// Known connection system codes, in display order.
var ConnectionCodes = []string{"BP", "LO", "HK", "LOL", "SF2K", "PCK"}

// Known material compound codes, in display order.
var MaterialCodes = []string{"P(B)", "A(B)", "JV", "N", "TC"}

// QuoteInput is the immutable user-supplied crossing configuration.
// The engine does not validate structural completeness beyond what the
// rule set's validations encode.
type QuoteInput struct {
	// Project definition
	ProjectName string `json:"project_name" yaml:"project_name"`
	Country     string `json:"country" yaml:"country"`
	Currency    string `json:"currency" yaml:"currency"`

	// Geometry
	DesignLen     float64 `json:"design_len" yaml:"design_len"`
	Tracks        int     `json:"tracks" yaml:"tracks"`
	Gauge         float64 `json:"gauge" yaml:"gauge"`
	TrackSpacing  float64 `json:"track_spacing" yaml:"track_spacing"`
	CrossingAngle float64 `json:"crossing_angle" yaml:"crossing_angle"`

	// Usage and environment
	SleeperSpacing600 bool    `json:"sleeper_spacing_600" yaml:"sleeper_spacing_600"`
	Usage             string  `json:"usage" yaml:"usage"`
	TrafficClass      string  `json:"traffic_class" yaml:"traffic_class"`
	SpeedKPH          float64 `json:"speed_kph" yaml:"speed_kph"`

	// Panels and edges
	FieldPanelType string `json:"field_panel_type" yaml:"field_panel_type"`
	EdgeBeam       string `json:"edge_beam" yaml:"edge_beam"`

	// Connection system
	Connection string `json:"connection" yaml:"connection"`
	Material   string `json:"material" yaml:"material"`

	// Optional flags
	RequiresStrandRestrictor bool `json:"requires_strand_restrictor" yaml:"requires_strand_restrictor"`
	SingleUnitTransition     bool `json:"single_unit_transition" yaml:"single_unit_transition"`
}

// Context builds the initial evaluation context from the input fields.
// Keys match the names rule expressions and predicates use.
func (in QuoteInput) Context() Context {
	return Context{
		"project_name":               in.ProjectName,
		"country":                    in.Country,
		"currency":                   in.Currency,
		"design_len":                 in.DesignLen,
		"tracks":                     in.Tracks,
		"gauge":                      in.Gauge,
		"track_spacing":              in.TrackSpacing,
		"crossing_angle":             in.CrossingAngle,
		"sleeper_spacing_600":        in.SleeperSpacing600,
		"usage":                      in.Usage,
		"traffic_class":              in.TrafficClass,
		"speed_kph":                  in.SpeedKPH,
		"field_panel_type":           in.FieldPanelType,
		"edge_beam":                  in.EdgeBeam,
		"connection":                 in.Connection,
		"material":                   in.Material,
		"requires_strand_restrictor": in.RequiresStrandRestrictor,
		"single_unit_transition":     in.SingleUnitTransition,
	}
}
