package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Signature text grammar
	SigInfo             Code = 2000
	SigUnexpectedToken  Code = 2001
	SigUnclosedSlot     Code = 2002
	SigExpectIdentifier Code = 2003
	SigExpectColon      Code = 2004
	SigExpectType       Code = 2005
	SigEmptySignature   Code = 2006
	SigUnknownQualifier Code = 2007

	// Semantic: registration
	SemaInfo               Code = 3000
	SemaDuplicateSignature Code = 3001
	SemaUnknownType        Code = 3002
	SemaUnknownTrait       Code = 3003
	SemaCyclicTraitDefault Code = 3004

	// Semantic: resolution
	SemaNoViableFunction  Code = 3100
	SemaAmbiguousCall     Code = 3101
	SemaTypeMismatch      Code = 3102
	SemaOwnershipMismatch Code = 3103
	SemaTraitUnsatisfied  Code = 3104
)

func (c Code) String() string {
	switch {
	case c == UnknownCode:
		return "QU0000"
	case c >= 2000 && c < 3000:
		return fmt.Sprintf("SIG%04d", uint16(c))
	case c >= 3000 && c < 4000:
		return fmt.Sprintf("SEMA%04d", uint16(c))
	}
	return fmt.Sprintf("QU%04d", uint16(c))
}
