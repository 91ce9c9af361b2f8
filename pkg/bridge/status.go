// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge

// Status classifies the outcome of a plugin execution. The wire value sent to
// the page is the ordinal.
type Status int

const (
	StatusNoResult Status = iota
	StatusOK
	StatusClassNotFound
	StatusIllegalAccess
	StatusInstantiationError
	StatusMalformedURL
	StatusIOError
	StatusInvalidAction
	StatusSerializationError
	StatusGenericError
)

var statusNames = [...]string{
	StatusNoResult:           "no_result",
	StatusOK:                 "ok",
	StatusClassNotFound:      "class_not_found",
	StatusIllegalAccess:      "illegal_access",
	StatusInstantiationError: "instantiation_error",
	StatusMalformedURL:       "malformed_url",
	StatusIOError:            "io_error",
	StatusInvalidAction:      "invalid_action",
	StatusSerializationError: "serialization_error",
	StatusGenericError:       "generic_error",
}

func (s Status) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return statusNames[s]
}

// Valid reports whether s is one of the defined status codes.
func (s Status) Valid() bool {
	return s >= StatusNoResult && s <= StatusGenericError
}

// IsSuccess reports whether the page should route a result with this status
// to its success handlers.
func (s Status) IsSuccess() bool {
	return s == StatusNoResult || s == StatusOK
}

// ParseStatus returns the status with the given name.
func ParseStatus(name string) (Status, bool) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), true
		}
	}
	return 0, false
}
