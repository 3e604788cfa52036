package source

// Done is closed once the strategy worker has exited. It is nil before Start.
func (s *RemoteSource) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Done is closed once the event forwarder has exited. It is nil before Start.
func (s *LocalSource) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
