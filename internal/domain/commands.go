package domain

// Command is a request to change one key record.
type Command interface {
	CommandName() string
}

// CreateKeyCommand creates a new key. An empty Key means one is generated.
type CreateKeyCommand struct {
	Name         string      `json:"name"`
	UserNameKey  string      `json:"userNameKey,omitempty"`
	Key          string      `json:"key,omitempty"`
	Description  string      `json:"description,omitempty"`
	Type         KeyType     `json:"type,omitempty"`
	LimitEnabled bool        `json:"limitEnabled"`
	Limit        NumberInput `json:"limit,omitempty"`
	TrackType    TrackType   `json:"trackType,omitempty"`
	TrackLimit   NumberInput `json:"trackLimit,omitempty"`
	ExpiryDate   *Date       `json:"expiryDate,omitempty"`
}

// UpdateKeyCommand rewrites the editable fields of an existing key.
type UpdateKeyCommand struct {
	ID           KeyID       `json:"-"`
	Name         string      `json:"name"`
	UserNameKey  string      `json:"userNameKey,omitempty"`
	Description  string      `json:"description,omitempty"`
	Type         KeyType     `json:"type,omitempty"`
	LimitEnabled bool        `json:"limitEnabled"`
	Limit        NumberInput `json:"limit,omitempty"`
	TrackType    TrackType   `json:"trackType,omitempty"`
	TrackLimit   NumberInput `json:"trackLimit,omitempty"`
	ExpiryDate   *Date       `json:"expiryDate,omitempty"`
}

// DeleteKeyCommand removes a key.
type DeleteKeyCommand struct {
	ID KeyID `json:"id"`
}

// ToggleStatusCommand flips a key between active and inactive.
type ToggleStatusCommand struct {
	ID KeyID `json:"id"`
}

func (CreateKeyCommand) CommandName() string    { return "create" }
func (UpdateKeyCommand) CommandName() string    { return "update" }
func (DeleteKeyCommand) CommandName() string    { return "delete" }
func (ToggleStatusCommand) CommandName() string { return "toggle_status" }

// Event is the outcome of a successful command. Apply merges it into a State.
type Event interface {
	Apply(State) State
}

// KeyCreated carries the row the store returned for an insert.
type KeyCreated struct {
	Key APIKey `json:"key"`
}

// KeyUpdated carries the row the store returned for an update.
type KeyUpdated struct {
	Key APIKey `json:"key"`
}

// KeyDeleted names the removed key.
type KeyDeleted struct {
	ID KeyID `json:"id"`
}

// KeyStatusChanged records a status write.
type KeyStatusChanged struct {
	ID     KeyID     `json:"id"`
	Status KeyStatus `json:"status"`
}

func (e KeyCreated) Apply(s State) State       { return s.WithAppended(e.Key) }
func (e KeyUpdated) Apply(s State) State       { return s.WithReplaced(e.Key) }
func (e KeyDeleted) Apply(s State) State       { return s.WithRemoved(e.ID) }
func (e KeyStatusChanged) Apply(s State) State { return s.WithStatus(e.ID, e.Status) }
