package model

// Client is the root of one or more user journeys (a mobile app, a
// browser frontend, a partner integration).
type Client struct {
	Name         string         `json:"name"`
	UserJourneys []*UserJourney `json:"user_journeys,omitempty"`
	Comment      string         `json:"comment,omitempty"`

	// Computed data -- populated during aggregation.
	Status Status `json:"status,omitempty"`
}

// UserJourney is a named path through the dependency graph for a client.
// Its name is fully qualified as "client.journey"; its dependencies carry
// the toplevel flag and point at the journey's entry nodes.
type UserJourney struct {
	Name         string        `json:"name"`
	ClientName   string        `json:"client_name"`
	Dependencies []*Dependency `json:"dependencies,omitempty"`

	// Computed data -- populated during aggregation.
	Status Status `json:"status,omitempty"`
}
