package session

// Registry maps connection ids to live sessions. It is not synchronized:
// the Manager owns it and guards every access with its own mutex.
type Registry struct {
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Put overwrites any prior entry without tearing it down.
func (r *Registry) Put(id string, s *Session) {
	r.sessions[id] = s
}

func (r *Registry) Get(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Remove(id string) {
	delete(r.sessions, id)
}

// Owned returns every session whose control socket is sock.
func (r *Registry) Owned(sock Socket) []*Session {
	var out []*Session
	for _, s := range r.sessions {
		if s.socket == sock {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.sessions)
}
