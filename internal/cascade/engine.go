package cascade

import (
	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/target"
)

// Engine is the common interface both recombination strategies implement,
// driven by the transport loop as a cascade's recoils are processed.
type Engine interface {
	// Init starts a new cascade rooted at the PKA ion i (a vacancy record
	// at the ion's track-start position).
	Init(i *ion.State, a *target.Atom)
	// PushVacancy records the vacancy a recoil leaves at the struck atom's
	// original site when the recoil is created.
	PushVacancy(i *ion.State, a *target.Atom)
	// PushInterstitial records an interstitial where a recoil came to rest
	// (fell below the energy cutoff).
	PushInterstitial(i *ion.State, a *target.Atom)
	// Recombine matches interstitials against vacancies within each
	// species' recombination radius and returns the outcome.
	Recombine(g Grid) Result
}

// TimeOrdered recombines defects strictly in the order they were created,
// matching cascade.h's time_ordered_cascade: every new defect is checked
// against the current opposite-type pool in FIFO(by time)-then-nearest
// order.
type TimeOrdered struct {
	buf buffer

	queue []*Defect
	kinds []DefectType

	vacancies, interstitials []*Defect
}

// NewTimeOrdered returns an empty time-ordered recombination engine.
func NewTimeOrdered() *TimeOrdered { return &TimeOrdered{} }

func (e *TimeOrdered) reset() {
	e.buf.reset()
	e.queue = e.queue[:0]
	e.kinds = e.kinds[:0]
	e.vacancies = e.vacancies[:0]
	e.interstitials = e.interstitials[:0]
}

func (e *TimeOrdered) Init(i *ion.State, a *target.Atom) {
	e.reset()
	d := e.buf.get()
	FromIon(d, DefectVacancy, i, a, true)
	e.insert(d, DefectVacancy)
}

func (e *TimeOrdered) PushVacancy(i *ion.State, a *target.Atom) {
	d := e.buf.get()
	FromIon(d, DefectVacancy, i, a, false)
	e.insert(d, DefectVacancy)
}

func (e *TimeOrdered) PushInterstitial(i *ion.State, a *target.Atom) {
	d := e.buf.get()
	FromIon(d, DefectInterstitial, i, a, false)
	e.insert(d, DefectInterstitial)
}

// insert keeps e.queue sorted by time ascending (a simple insertion sort —
// cascades rarely generate more than a few hundred defects, so this is
// cheaper in practice than heap bookkeeping for the typical size).
func (e *TimeOrdered) insert(d *Defect, k DefectType) {
	i := len(e.queue)
	e.queue = append(e.queue, d)
	e.kinds = append(e.kinds, k)
	for i > 0 && e.queue[i-1].T > e.queue[i].T {
		e.queue[i-1], e.queue[i] = e.queue[i], e.queue[i-1]
		e.kinds[i-1], e.kinds[i] = e.kinds[i], e.kinds[i-1]
		i--
	}
}

func (e *TimeOrdered) Recombine(g Grid) Result {
	var res Result
	for idx, d := range e.queue {
		switch e.kinds[idx] {
		case DefectVacancy:
			if p := findPartner(g, d, e.interstitials); p >= 0 {
				res.Pairs = append(res.Pairs, Pair{I: e.interstitials[p], V: d})
				e.interstitials = removeAt(e.interstitials, p)
			} else {
				e.vacancies = append(e.vacancies, d)
			}
		case DefectInterstitial:
			if p := findPartner(g, d, e.vacancies); p >= 0 {
				res.Pairs = append(res.Pairs, Pair{I: d, V: e.vacancies[p]})
				e.vacancies = removeAt(e.vacancies, p)
			} else {
				e.interstitials = append(e.interstitials, d)
			}
		}
	}
	res.Vacancies = append(res.Vacancies, e.vacancies...)
	res.Interstitials = append(res.Interstitials, e.interstitials...)
	return res
}

// Unordered recombines without regard to creation time: all initial
// vacancies are matched against all initial interstitials in one pass,
// matching cascade.h's unordered_cascade.
type Unordered struct {
	buf buffer

	v0, i0 []*Defect
}

// NewUnordered returns an empty unordered recombination engine.
func NewUnordered() *Unordered { return &Unordered{} }

func (e *Unordered) reset() {
	e.buf.reset()
	e.v0 = e.v0[:0]
	e.i0 = e.i0[:0]
}

func (e *Unordered) Init(i *ion.State, a *target.Atom) {
	e.reset()
	d := e.buf.get()
	FromIon(d, DefectVacancy, i, a, true)
	e.v0 = append(e.v0, d)
}

func (e *Unordered) PushVacancy(i *ion.State, a *target.Atom) {
	d := e.buf.get()
	FromIon(d, DefectVacancy, i, a, false)
	e.v0 = append(e.v0, d)
}

func (e *Unordered) PushInterstitial(i *ion.State, a *target.Atom) {
	d := e.buf.get()
	FromIon(d, DefectInterstitial, i, a, false)
	e.i0 = append(e.i0, d)
}

func (e *Unordered) Recombine(g Grid) Result {
	var res Result
	for _, v := range e.v0 {
		if p := findPartner(g, v, e.i0); p >= 0 {
			res.Pairs = append(res.Pairs, Pair{I: e.i0[p], V: v})
			e.i0 = removeAt(e.i0, p)
		} else {
			res.Vacancies = append(res.Vacancies, v)
		}
	}
	res.Interstitials = append(res.Interstitials, e.i0...)
	return res
}
