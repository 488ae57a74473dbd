package contract

import (
	"fmt"

	"github.com/teranos/contractgen/errors"
)

// ErrGeneratorInput is the sentinel every GeneratorInputError unwraps to.
var ErrGeneratorInput = errors.New("generator input error")

// InputErrorKind classifies why a model cannot produce a contract.
type InputErrorKind int

const (
	NoOperationsFound InputErrorKind = iota
	NoExposedAggregates
	NoAggregateRoots
	UnsupportedFlowShape
	MissingParameter
	UnknownContext
)

func (k InputErrorKind) String() string {
	switch k {
	case NoOperationsFound:
		return "no operations found"
	case NoExposedAggregates:
		return "no exposed aggregates"
	case NoAggregateRoots:
		return "no aggregate roots"
	case UnsupportedFlowShape:
		return "unsupported flow shape"
	case MissingParameter:
		return "missing parameter"
	case UnknownContext:
		return "unknown context"
	default:
		return "unknown"
	}
}

// GeneratorInputError reports a model that cannot be turned into a contract.
type GeneratorInputError struct {
	Kind    InputErrorKind
	Context string
	Msg     string
}

func (e *GeneratorInputError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Context, e.Kind, e.Msg)
}

func (e *GeneratorInputError) Unwrap() error {
	return ErrGeneratorInput
}

var hints = map[InputErrorKind]string{
	NoOperationsFound:    "add a public operation to an exposed aggregate root or an application service",
	NoExposedAggregates:  "expose an aggregate in a relationship where the context is upstream, or add an application layer",
	NoAggregateRoots:     "mark one entity of every exposed aggregate as aggregate root",
	UnsupportedFlowShape: "split steps that combine several events with several commands, and use an and-gate for multiple branches",
	MissingParameter:     "pass the bounded context to generate",
	UnknownContext:       "check the context name against the model's bounded contexts",
}

func inputError(kind InputErrorKind, context, format string, args ...interface{}) error {
	err := error(&GeneratorInputError{Kind: kind, Context: context, Msg: fmt.Sprintf(format, args...)})
	return errors.WithHint(errors.WithStack(err), hints[kind])
}

// IsInputError reports whether err is a GeneratorInputError of the given kind.
func IsInputError(err error, kind InputErrorKind) bool {
	var gie *GeneratorInputError
	return errors.As(err, &gie) && gie.Kind == kind
}
