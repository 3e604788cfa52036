package ssh

// Args exposes the ssh argument list for a command.
func (s *Session) Args(command string, persistent bool) []string {
	return s.args(command, persistent)
}

// ExitArgs exposes the argument list used to stop the control master.
func (s *Session) ExitArgs() []string {
	return s.exitArgs()
}
