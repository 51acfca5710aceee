package molecule

import (
	"regexp"

	"molview/domain/core"
)

// Basic SMILES character set validation. Full structural validation happens
// in the parser; this gate rejects obvious garbage before parsing.
var smilesPattern = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#$:/\\.%*]+$`)

const maxSMILESLength = 5000

// ValidateSMILES performs lightweight structural validation of a SMILES string.
func ValidateSMILES(smiles string) error {
	if smiles == "" {
		return core.ErrInvalidSMILES
	}
	if len(smiles) > maxSMILESLength {
		return core.ErrInvalidSMILES
	}
	if !smilesPattern.MatchString(smiles) {
		return core.ErrInvalidSMILES
	}
	if !balancedBrackets(smiles) {
		return core.ErrInvalidSMILES
	}
	return nil
}

// balancedBrackets checks that [ ] and ( ) are balanced and correctly nested.
func balancedBrackets(s string) bool {
	var stack []rune
	for _, ch := range s {
		switch ch {
		case '[', '(':
			stack = append(stack, ch)
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return false
			}
			stack = stack[:len(stack)-1]
		case ')':
			if len(stack) == 0 || stack[len(stack)-1] != '(' {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}
