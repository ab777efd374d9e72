package domain

// ActorType identifies who performed a ticket mutation.
type ActorType string

const (
	ActorTypeAgent  ActorType = "AGENT"
	ActorTypeAdmin  ActorType = "ADMIN"
	ActorTypeSystem ActorType = "SYSTEM"
)

// Actor pairs an actor type with its identifier. The system actor has no id.
type Actor struct {
	Type ActorType
	ID   *string
}

// SystemActor is used by the sweeper and the escalation executor.
func SystemActor() Actor {
	return Actor{Type: ActorTypeSystem}
}

// AgentActor builds an actor for an authenticated agent.
func AgentActor(id string) Actor {
	return Actor{Type: ActorTypeAgent, ID: &id}
}

// AdminActor builds an actor for an authenticated admin.
func AdminActor(id string) Actor {
	return Actor{Type: ActorTypeAdmin, ID: &id}
}
