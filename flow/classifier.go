/*
classifier.go - Movement classification for one customer's period pair

PURPOSE:
  Pairs a customer's Before profile with their After profile and assigns
  exactly one movement type. The rule set is total and mutually exclusive
  over every pair a correct source join can produce.

RULES (first match wins):
  1. Absent -> present:  new_to_category
  2. present -> Absent:  lost_from_category
  3. same primary (including Mixed -> Mixed): stayed
  4. otherwise: switched (covers Mixed -> concrete and concrete -> Mixed)

Absent -> Absent cannot occur for customers produced by the join; the
classifier surfaces it as ErrNoPresence rather than guessing a label.
*/
package flow

// FlowTriple is the classified transition for a single customer.
type FlowTriple struct {
	From Item
	To   Item
	Type MovementType
}

// Classify assigns the movement type for one profile pair. Returns
// ErrNoPresence when the customer is absent from both periods.
func Classify(pair ProfilePair) (FlowTriple, error) {
	before, after := pair.Before.Primary, pair.After.Primary
	beforeAbsent := before.Kind == ItemAbsent
	afterAbsent := after.Kind == ItemAbsent

	switch {
	case beforeAbsent && afterAbsent:
		return FlowTriple{}, ErrNoPresence
	case beforeAbsent:
		return FlowTriple{From: Absent, To: after, Type: MoveNewToCategory}, nil
	case afterAbsent:
		return FlowTriple{From: before, To: Absent, Type: MoveLostFromCategory}, nil
	case before == after:
		return FlowTriple{From: before, To: after, Type: MoveStayed}, nil
	default:
		return FlowTriple{From: before, To: after, Type: MoveSwitched}, nil
	}
}
