package domain

// transitionPolicy decides whether a role may move an order from one
// non-terminal status to another.
type transitionPolicy func(from, to OrderStatus) bool

var transitionPolicies = map[Role]transitionPolicy{
	RoleCustomer: func(from, to OrderStatus) bool {
		return to == StatusCancelled && from.Cancellable()
	},
	RoleChef: func(from, to OrderStatus) bool {
		if next, ok := from.Next(); ok && next == to {
			return true
		}
		return to == StatusCancelled && from.Cancellable()
	},
	// Administrative override: any target, no adjacency restriction.
	RoleAdmin: func(from, to OrderStatus) bool { return true },
}

// CanView reports whether the actor may see the order: customers their own,
// chefs the ones assigned to them, admins all.
func CanView(actor Actor, o *Order) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleChef:
		return o.ChefID == actor.ID
	case RoleCustomer:
		return o.CustomerID == actor.ID
	default:
		return false
	}
}

// AuthorizeTransition validates moving o to the target status on behalf of
// actor. Orders the actor may not see are reported as not found.
func AuthorizeTransition(actor Actor, o *Order, to OrderStatus) error {
	const op = "order.transition"

	if !actor.Authenticated() {
		return E(KindNotAuthenticated, op, "authentication required")
	}
	if !CanView(actor, o) {
		return E(KindNotFound, op, "order %s not found", o.ID)
	}
	if !to.Valid() {
		return E(KindValidation, op, "invalid status %q", to)
	}
	if o.Status.Terminal() {
		return E(KindInvalidStateTransition, op, "order %s is %s and can no longer change", o.ID, o.Status)
	}
	if o.Status == to {
		return E(KindInvalidStateTransition, op, "order %s is already %s", o.ID, to)
	}

	policy, ok := transitionPolicies[actor.Role]
	if !ok || !policy(o.Status, to) {
		if to == StatusCancelled {
			return E(KindInvalidStateTransition, op, "cannot cancel order in status %s", o.Status)
		}
		return E(KindInvalidStateTransition, op, "%s cannot move order from %s to %s", actor.Role, o.Status, to)
	}
	return nil
}
