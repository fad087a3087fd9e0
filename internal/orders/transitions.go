package orders

import "github.com/tavolo-app/tavolo-backend/pkg/enums"

// Relationship describes how an actor relates to a specific order, which is
// not the same thing as their platform role: an admin always relates as
// RelationshipAdmin, but a restaurant_owner only relates as
// RelationshipRestaurantOwner to orders placed against their own restaurant.
type Relationship string

const (
	RelationshipCustomer        Relationship = "customer"
	RelationshipRestaurantOwner Relationship = "restaurant_owner"
	RelationshipAdmin           Relationship = "admin"
	RelationshipNone            Relationship = "none"
)

type transitionKey struct {
	From enums.OrderStatus
	To   enums.OrderStatus
}

type relationshipSet map[Relationship]struct{}

func (s relationshipSet) contains(rel Relationship) bool {
	_, ok := s[rel]
	return ok
}

func allow(rels ...Relationship) relationshipSet {
	set := make(relationshipSet, len(rels))
	for _, rel := range rels {
		set[rel] = struct{}{}
	}
	return set
}

// transitionPolicy is the complete status graph. A (from, to) pair absent
// from this table is an illegal edge for everyone, including admins; a pair
// present here is still denied to actors whose relationship is not in the
// set. Terminal statuses (received, canceled) have no outgoing edges.
var transitionPolicy = map[transitionKey]relationshipSet{
	{enums.OrderStatusPlaced, enums.OrderStatusProcessing}: allow(
		RelationshipRestaurantOwner, RelationshipAdmin,
	),
	{enums.OrderStatusPlaced, enums.OrderStatusCanceled}: allow(
		RelationshipCustomer, RelationshipRestaurantOwner, RelationshipAdmin,
	),
	{enums.OrderStatusProcessing, enums.OrderStatusInRoute}: allow(
		RelationshipRestaurantOwner, RelationshipAdmin,
	),
	{enums.OrderStatusProcessing, enums.OrderStatusCanceled}: allow(
		RelationshipRestaurantOwner, RelationshipAdmin,
	),
	{enums.OrderStatusInRoute, enums.OrderStatusDelivered}: allow(
		RelationshipRestaurantOwner, RelationshipAdmin,
	),
	{enums.OrderStatusDelivered, enums.OrderStatusReceived}: allow(
		RelationshipCustomer, RelationshipAdmin,
	),
}

// allowedActors returns the relationship set for an edge, or false when the
// edge is not part of the lifecycle graph.
func allowedActors(from, to enums.OrderStatus) (relationshipSet, bool) {
	set, ok := transitionPolicy[transitionKey{From: from, To: to}]
	return set, ok
}
