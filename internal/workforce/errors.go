package workforce

import (
	"errors"
	"fmt"
)

// ProtocolParseError reports malformed tagged output where no safe default
// exists, such as an Assigner response carrying neither a task description
// nor a direct answer. Fatal to the run.
type ProtocolParseError struct {
	// Role is the role whose output failed to parse.
	Role string

	// Detail names the missing or malformed region.
	Detail string

	// Response is the raw model output, kept for diagnostics.
	Response string
}

func (e *ProtocolParseError) Error() string {
	return fmt.Sprintf("%s protocol parse error: %s", e.Role, e.Detail)
}

// IsProtocolParseError checks if an error is or wraps a ProtocolParseError.
func IsProtocolParseError(err error) bool {
	var parseErr *ProtocolParseError
	return errors.As(err, &parseErr)
}

// AssignmentError reports that the Assigner selected an executor that is not
// in the registry. The subtask stays not_started; the orchestrator seeds the
// failure info with this error and reflects if budget remains.
type AssignmentError struct {
	// Agent is the unknown executor name the Assigner selected.
	Agent string

	// TaskID is the subtask that could not be dispatched.
	TaskID int
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("assigner selected unknown executor %q for subtask %d", e.Agent, e.TaskID)
}

// IsAssignmentError checks if an error is or wraps an AssignmentError.
func IsAssignmentError(err error) bool {
	var assignErr *AssignmentError
	return errors.As(err, &assignErr)
}
