package terra

import "github.com/hallowdale/emberfell/engine/world"

// FilterPlacements resolves placement conflicts among the candidates of one
// chunk. A candidate is rejected if it lies closer than its kind's minimum
// separation, measured in the horizontal plane, to a same-kind object that
// outranks it: any object in nearby, or an earlier accepted candidate of the
// same chunk. Rejection is checked against the full nearby list rather than
// against what survives of it, so the outcome never depends on the order
// chunks are generated in.
func FilterPlacements(candidates, nearby []world.PlacedObject) []world.PlacedObject {
	accepted := make([]world.PlacedObject, 0, len(candidates))
	for _, c := range candidates {
		if conflicts(c, nearby) || conflicts(c, accepted) {
			continue
		}
		accepted = append(accepted, c)
	}
	return accepted
}

// conflicts checks if the candidate lies closer than its kind's minimum
// separation to any same-kind object in others.
func conflicts(c world.PlacedObject, others []world.PlacedObject) bool {
	sep := c.Kind.MinSeparation()
	sepSq := sep * sep
	for _, o := range others {
		if o.Kind != c.Kind {
			continue
		}
		dx, dz := c.Pos[0]-o.Pos[0], c.Pos[2]-o.Pos[2]
		if dx*dx+dz*dz < sepSq {
			return true
		}
	}
	return false
}
