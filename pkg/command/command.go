package command

import (
	"github.com/dan-solli/qhistory/pkg/history"
)

// Op identifies a command.
type Op int

const (
	OpInvalid Op = iota
	OpDeclare
	OpRemove
	OpValid
	OpEnergySet
	OpEnergyGet
	OpEqual
)

// String returns the stable operation name used in metrics, traces and the journal.
func (o Op) String() string {
	switch o {
	case OpDeclare:
		return "declare"
	case OpRemove:
		return "remove"
	case OpValid:
		return "valid"
	case OpEnergySet:
		return "energy_set"
	case OpEnergyGet:
		return "energy_get"
	case OpEqual:
		return "equal"
	default:
		return "invalid"
	}
}

func (o Op) arity() int {
	switch o {
	case OpEnergySet, OpEqual:
		return 2
	default:
		return 1
	}
}

// Command is a parsed, validated line.
type Command struct {
	Op    Op
	Args  []string        // Arguments as typed
	A     history.History // First history argument
	B     history.History // Second history (OpEqual)
	Value history.Energy  // Energy to assign (OpEnergySet)
}

// Kind tells the printer how to render a Result.
type Kind int

const (
	KindOK Kind = iota
	KindBool
	KindEnergy
)

// Result is the outcome of executing a Command. A non-nil Err always
// renders as ERROR.
type Result struct {
	Kind   Kind
	Bool   bool
	Energy history.Energy
	Err    error
}

// Execute runs cmd against the store.
func Execute(s *history.Store, cmd Command) Result {
	switch cmd.Op {
	case OpDeclare:
		return Result{Kind: KindOK, Err: s.Declare(cmd.A)}
	case OpRemove:
		return Result{Kind: KindOK, Err: s.Remove(cmd.A)}
	case OpValid:
		return Result{Kind: KindBool, Bool: s.Valid(cmd.A)}
	case OpEnergySet:
		return Result{Kind: KindOK, Err: s.SetEnergy(cmd.A, cmd.Value)}
	case OpEnergyGet:
		if !s.Valid(cmd.A) {
			return Result{Kind: KindEnergy, Err: history.ErrUnknownHistory}
		}
		e := s.Energy(cmd.A)
		if e == 0 {
			return Result{Kind: KindEnergy, Err: history.ErrNoEnergy}
		}
		return Result{Kind: KindEnergy, Energy: e}
	case OpEqual:
		return Result{Kind: KindOK, Err: s.Equate(cmd.A, cmd.B)}
	default:
		return Result{Err: ErrSyntax}
	}
}
