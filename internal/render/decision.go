package render

import "github.com/tessera-themes/tessera/internal/ledger"

// WriteMode is how the run treats files that already exist.
type WriteMode int

const (
	// ModeSmart writes unless the user modified the file, which becomes a
	// conflict. The default.
	ModeSmart WriteMode = iota
	// ModeSkip never touches an existing file.
	ModeSkip
	// ModeForce writes everything, user modifications included.
	ModeForce
)

func (m WriteMode) String() string {
	switch m {
	case ModeSkip:
		return "skip"
	case ModeForce:
		return "force"
	default:
		return "smart"
	}
}

// Decision is the outcome for one output file.
type Decision int

const (
	Create Decision = iota
	Recreate
	Update
	Overwrite
	Skip
	Conflict
)

// ShouldWrite gates the actual filesystem write.
func (d Decision) ShouldWrite() bool {
	switch d {
	case Create, Recreate, Update, Overwrite:
		return true
	default:
		return false
	}
}

// Action is the log verb for the decision.
func (d Decision) Action() string {
	switch d {
	case Create:
		return "creating"
	case Recreate:
		return "recreating"
	case Update:
		return "updating"
	case Overwrite:
		return "overwriting"
	case Conflict:
		return "conflict"
	default:
		return "skipped"
	}
}

// Decide maps a file's status and the active write mode to a decision.
// Pure lookup, no I/O. A missing file always wins (nothing to conflict
// with), then user modification dominates input changes, and skip mode
// vetoes everything that still exists.
func Decide(status ledger.FileStatus, mode WriteMode) Decision {
	switch {
	case !status.Tracked:
		return Create
	case !status.FileExists:
		return Recreate
	case status.UserModified && mode == ModeForce:
		return Overwrite
	case status.UserModified && mode == ModeSmart:
		return Conflict
	case status.UserModified:
		return Skip
	case !status.TemplateChanged && !status.SchemeChanged:
		return Skip
	case mode == ModeSkip:
		return Skip
	default:
		return Update
	}
}
