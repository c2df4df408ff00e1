package ion

// Queue is the per-worker arena of State objects plus the four FIFOs the
// transport driver moves ions through: a ready-to-run PKA queue, a
// secondary-recoil queue, and the two defect-record queues fed by a
// finished cascade (ion.h's ion_queue).
//
// A Queue is owned by exactly one worker goroutine; it is not safe for
// concurrent use.
type Queue struct {
	free                                   []*State
	pkaQ, recoilQ, vacancyQ, interstitialQ []*State

	size   int
	uidCtr uint64
}

// NewQueue returns an empty arena.
func NewQueue() *Queue { return &Queue{} }

// Size is the number of State objects the arena has ever allocated (live or
// recycled).
func (q *Queue) Size() int { return q.size }

func (q *Queue) newState() *State {
	var s *State
	if n := len(q.free); n > 0 {
		s = q.free[n-1]
		q.free = q.free[:n-1]
		s.Reset()
	} else {
		s = &State{}
		s.Reset()
		q.size++
	}
	s.UID = q.uidCtr
	q.uidCtr++
	return s
}

// CreateIon allocates a fresh State from the arena (or recycles a freed
// one).
func (q *Queue) CreateIon() *State { return q.newState() }

// CloneIon allocates a State copied from p, re-tagged with a fresh UID (the
// pattern used to spawn a recoil from its parent ion before InitRecoil
// overwrites the fields that differ).
func (q *Queue) CloneIon(p *State) *State {
	s := q.newState()
	uid := s.UID
	*s = *p
	s.UID = uid
	return s
}

// FreeIon returns a State to the arena's free list for reuse.
func (q *Queue) FreeIon(s *State) {
	q.free = append(q.free, s)
}

// PushPKA/PopPKA manage the primary-knock-on-atom queue: ions a finished
// source-ion history generates, to be run after the ion itself stops/exits.
func (q *Queue) PushPKA(s *State)  { q.pkaQ = append(q.pkaQ, s) }
func (q *Queue) PopPKA() (*State, bool) { return pop(&q.pkaQ) }

// PushRecoil/PopRecoil manage the higher-generation recoil queue.
func (q *Queue) PushRecoil(s *State)  { q.recoilQ = append(q.recoilQ, s) }
func (q *Queue) PopRecoil() (*State, bool) { return pop(&q.recoilQ) }

// PushVacancy/PopVacancy manage the vacancy defect-record queue.
func (q *Queue) PushVacancy(s *State) {
	s.Type = Vacancy
	q.vacancyQ = append(q.vacancyQ, s)
}
func (q *Queue) PopVacancy() (*State, bool) { return pop(&q.vacancyQ) }

// PushInterstitial/PopInterstitial manage the interstitial defect-record
// queue.
func (q *Queue) PushInterstitial(s *State) {
	s.Type = Interstitial
	q.interstitialQ = append(q.interstitialQ, s)
}
func (q *Queue) PopInterstitial() (*State, bool) { return pop(&q.interstitialQ) }

func pop(qs *[]*State) (*State, bool) {
	n := len(*qs)
	if n == 0 {
		return nil, false
	}
	s := (*qs)[0]
	*qs = (*qs)[1:]
	return s, true
}
