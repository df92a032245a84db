package abx

import "strings"

// internThreshold is the length below which a space-free attribute value is
// worth interning. Longer or spaced values are almost never repeated.
const internThreshold = 50

// inferAttributeType picks the token type for an attribute supplied as text.
// The policy is deliberately conservative: only booleans and interned strings
// are recognized. Callers that know the intended Android type should use the
// typed Attribute* methods on Serializer instead.
func inferAttributeType(value string) byte {
	switch value {
	case "true":
		return typeBooleanTrue
	case "false":
		return typeBooleanFalse
	}

	if len(value) < internThreshold && !strings.ContainsRune(value, ' ') {
		return typeStringInterned
	}

	return typeString
}
