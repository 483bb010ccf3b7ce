package game

// Seats tracks the ordered participant list, per-player readiness and the
// waiting room for mid-round joiners. Membership changes mid-round only
// through the waiting room or disconnects.
type Seats struct {
	order   []string
	ready   map[string]bool
	waiting []string
}

func NewSeats() *Seats {
	return &Seats{ready: map[string]bool{}}
}

// Seat adds the user to the table. Reports false if already seated.
func (s *Seats) Seat(user string) bool {
	if s.Has(user) {
		return false
	}
	s.order = append(s.order, user)
	s.ready[user] = false
	return true
}

// Park queues the user for the next round.
func (s *Seats) Park(user string) {
	if s.Has(user) || s.IsWaiting(user) {
		return
	}
	s.waiting = append(s.waiting, user)
}

// AdmitWaiting seats everyone from the waiting room, preserving arrival
// order.
func (s *Seats) AdmitWaiting() {
	for _, user := range s.waiting {
		s.Seat(user)
	}
	s.waiting = nil
}

func (s *Seats) Unseat(user string) {
	for i, u := range s.order {
		if u == user {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	delete(s.ready, user)
	for i, u := range s.waiting {
		if u == user {
			s.waiting = append(s.waiting[:i], s.waiting[i+1:]...)
			break
		}
	}
}

func (s *Seats) Has(user string) bool {
	_, ok := s.ready[user]
	return ok
}

func (s *Seats) IsWaiting(user string) bool {
	for _, u := range s.waiting {
		if u == user {
			return true
		}
	}
	return false
}

func (s *Seats) SetReady(user string, ready bool) error {
	if !s.Has(user) {
		return ErrUnknownPlayer
	}
	s.ready[user] = ready
	return nil
}

func (s *Seats) Ready(user string) bool {
	return s.ready[user]
}

// AllReady reports whether every seated player has readied up.
func (s *Seats) AllReady() bool {
	for _, ok := range s.ready {
		if !ok {
			return false
		}
	}
	return true
}

func (s *Seats) ClearReady() {
	for user := range s.ready {
		s.ready[user] = false
	}
}

// Users returns seated players in join order.
func (s *Seats) Users() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Seats) NumSeated() int {
	return len(s.order)
}

// Len counts seated plus waiting players, mirroring the session listing.
func (s *Seats) Len() int {
	return len(s.order) + len(s.waiting)
}
