package domain

// StatusSnapshot is the upstream judge status payload, passed through to the
// client largely unchanged (state, runtime, memory, testcase counts). The
// proxy makes no terminal-vs-pending judgment; the polling client owns the
// stop condition.
type StatusSnapshot map[string]any

// State returns the upstream state string, or empty when absent.
func (s StatusSnapshot) State() string {
	if v, ok := s["state"].(string); ok {
		return v
	}
	return ""
}
