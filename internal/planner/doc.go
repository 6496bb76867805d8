// Package planner handles the planning phase of overlay operations.
//
// The planner turns an overlay's managed files into a deterministic, ordered
// list of per-file steps before anything on disk is touched. Apply plans
// decide which installation files are originals that must be archived;
// retract plans decide which targets get their archived original restored.
// Plans also report overlaps with other applied overlays, since the
// backed-up path set is shared by every overlay.
//
// Plans are used both for dry runs and as the input of the engine.
package planner
