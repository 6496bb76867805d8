package planner

// Plan kinds
const (
	KindApply   = "apply"
	KindRetract = "retract"
)

// Plan is an ordered list of per-file steps for one overlay.
type Plan struct {
	// Kind is KindApply or KindRetract
	Kind string `json:"kind"`

	// Overlay is the overlay name
	Overlay string `json:"overlay"`

	// Steps are sorted by managed path
	Steps []Step `json:"steps"`

	// Overlaps lists targets shared with other applied overlays
	Overlaps []Overlap `json:"overlaps,omitempty"`
}

// Step is the work for a single overlay file.
type Step struct {
	// RelPath is the path relative to the overlay root
	RelPath string `json:"relPath"`

	// ManagedPath is the file in managed storage
	ManagedPath string `json:"managedPath"`

	// TargetPath is the projected file in the installation root
	TargetPath string `json:"targetPath"`

	// ArchivePath is where the original of TargetPath is preserved
	ArchivePath string `json:"archivePath"`

	// TargetExists reports whether a file was present at TargetPath at planning time
	TargetExists bool `json:"targetExists"`

	// Archive is set on apply steps that must preserve the original first
	Archive bool `json:"archive,omitempty"`

	// Restore is set on retract steps that put the archived original back
	Restore bool `json:"restore,omitempty"`
}

// Overlap describes a target path also projected by other applied overlays.
type Overlap struct {
	// TargetPath is the shared installation path
	TargetPath string `json:"targetPath"`

	// Overlays are the other applied overlays projecting TargetPath
	Overlays []string `json:"overlays"`

	// Reason is a human-readable explanation of the effect
	Reason string `json:"reason"`
}

// NewPlan creates an empty plan.
func NewPlan(kind, overlay string) *Plan {
	return &Plan{
		Kind:     kind,
		Overlay:  overlay,
		Steps:    []Step{},
		Overlaps: []Overlap{},
	}
}

// HasOverlaps returns true if the plan touches targets of other applied overlays.
func (p *Plan) HasOverlaps() bool {
	return len(p.Overlaps) > 0
}

// AddStep appends a step.
func (p *Plan) AddStep(step Step) {
	p.Steps = append(p.Steps, step)
}

// AddOverlap appends an overlap.
func (p *Plan) AddOverlap(overlap Overlap) {
	p.Overlaps = append(p.Overlaps, overlap)
}

// ArchiveCount returns how many steps archive an original.
func (p *Plan) ArchiveCount() int {
	n := 0
	for _, s := range p.Steps {
		if s.Archive {
			n++
		}
	}
	return n
}

// RestoreCount returns how many steps restore an original.
func (p *Plan) RestoreCount() int {
	n := 0
	for _, s := range p.Steps {
		if s.Restore {
			n++
		}
	}
	return n
}
