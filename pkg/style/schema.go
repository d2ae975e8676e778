package style

import "sort"

// Boolean literals accepted by the sheet format. Case matters.
const (
	boolTrue  = "True"
	boolFalse = "False"
)

// Kind is the value type of a directive.
type Kind int

const (
	// KindString values are free text unless the key declares an enum.
	KindString Kind = iota
	// KindFloat values parse as decimal numbers.
	KindFloat
	// KindBool values are exactly True or False.
	KindBool
)

// Constraint restricts numeric directive values.
type Constraint int

const (
	// ConstraintNone places no bound on the value.
	ConstraintNone Constraint = iota
	// ConstraintNonNegative requires value >= 0. Zero-width lines and
	// zero-length ticks are legal ways to hide an element.
	ConstraintNonNegative
	// ConstraintPositive requires value > 0. Resolutions cannot be zero.
	ConstraintPositive
)

// KeySpec describes one recognized directive.
type KeySpec struct {
	Group      string     // Display group for `style show`
	Kind       Kind       // Value type
	Constraint Constraint // Numeric bound, KindFloat only
	Enum       []string   // Valid values, KindString only; nil means any
}

// Directive groups, in display order.
const (
	GroupText   = "text"
	GroupAxes   = "axes"
	GroupTicks  = "ticks"
	GroupLines  = "lines"
	GroupLegend = "legend"
	GroupOutput = "output"
	GroupVector = "vector"
)

// Groups lists the directive groups in display order.
var Groups = []string{
	GroupText,
	GroupAxes,
	GroupTicks,
	GroupLines,
	GroupLegend,
	GroupOutput,
	GroupVector,
}

// Schema maps every recognized directive to its spec. Keys follow the
// dotted naming of the downstream plotting configuration so a single
// sheet can drive both figkit and the scripts that produce the panels.
var Schema = map[string]KeySpec{
	// Text rendering
	"font.family":      {Group: GroupText, Kind: KindString},
	"font.size":        {Group: GroupText, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"figure.titlesize": {Group: GroupText, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"axes.titlesize":   {Group: GroupText, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"axes.labelsize":   {Group: GroupText, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"xtick.labelsize":  {Group: GroupText, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"ytick.labelsize":  {Group: GroupText, Kind: KindFloat, Constraint: ConstraintNonNegative},

	// Axis decoration
	"axes.linewidth":     {Group: GroupAxes, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"axes.spines.left":   {Group: GroupAxes, Kind: KindBool},
	"axes.spines.right":  {Group: GroupAxes, Kind: KindBool},
	"axes.spines.top":    {Group: GroupAxes, Kind: KindBool},
	"axes.spines.bottom": {Group: GroupAxes, Kind: KindBool},

	// Tick geometry
	"xtick.direction":   {Group: GroupTicks, Kind: KindString, Enum: []string{"in", "out", "inout"}},
	"ytick.direction":   {Group: GroupTicks, Kind: KindString, Enum: []string{"in", "out", "inout"}},
	"xtick.major.size":  {Group: GroupTicks, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"ytick.major.size":  {Group: GroupTicks, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"xtick.major.width": {Group: GroupTicks, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"ytick.major.width": {Group: GroupTicks, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"xtick.major.pad":   {Group: GroupTicks, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"ytick.major.pad":   {Group: GroupTicks, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"xtick.minor.size":  {Group: GroupTicks, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"ytick.minor.size":  {Group: GroupTicks, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"xtick.minor.width": {Group: GroupTicks, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"ytick.minor.width": {Group: GroupTicks, Kind: KindFloat, Constraint: ConstraintNonNegative},

	// Line and marker defaults
	"lines.linewidth":  {Group: GroupLines, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"lines.markersize": {Group: GroupLines, Kind: KindFloat, Constraint: ConstraintNonNegative},

	// Legend
	"legend.fontsize": {Group: GroupLegend, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"legend.frameon":  {Group: GroupLegend, Kind: KindBool},

	// Output
	"figure.dpi":         {Group: GroupOutput, Kind: KindFloat, Constraint: ConstraintPositive},
	"savefig.dpi":        {Group: GroupOutput, Kind: KindFloat, Constraint: ConstraintPositive},
	"savefig.format":     {Group: GroupOutput, Kind: KindString, Enum: []string{"svg", "pdf", "png"}},
	"savefig.bbox":       {Group: GroupOutput, Kind: KindString, Enum: []string{"tight", "standard"}},
	"savefig.pad_inches": {Group: GroupOutput, Kind: KindFloat, Constraint: ConstraintNonNegative},
	"savefig.facecolor":  {Group: GroupOutput, Kind: KindString},

	// Vector export
	"svg.image_inline": {Group: GroupVector, Kind: KindBool},
	"svg.fonttype":     {Group: GroupVector, Kind: KindString, Enum: []string{"none", "path"}},
}

// GroupKeys returns the recognized keys of a group in sorted order.
func GroupKeys(group string) []string {
	var keys []string
	for key, spec := range Schema {
		if spec.Group == group {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
