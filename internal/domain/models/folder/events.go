package folder

// ViewChangeKind enumerates view change events emitted by the tree engine
type ViewChangeKind int

const (
	ViewCreated ViewChangeKind = iota
	ViewUpdated
	ViewDeleted
)

func (k ViewChangeKind) String() string {
	switch k {
	case ViewCreated:
		return "created"
	case ViewUpdated:
		return "updated"
	case ViewDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ViewChange is published whenever a view is created, updated or deleted.
// View is set for created/updated, IDs for deleted.
type ViewChange struct {
	Kind ViewChangeKind
	View View
	IDs  []string
}

// TrashChangeKind enumerates trash change events
type TrashChangeKind int

const (
	TrashCreated TrashChangeKind = iota
	TrashDeleted
)

func (k TrashChangeKind) String() string {
	if k == TrashCreated {
		return "created"
	}
	return "deleted"
}

// TrashChange is published whenever trash records are added or removed
type TrashChange struct {
	Kind TrashChangeKind
	IDs  []string
}

// StateChange is the collaboration state signal. RootChanged means the whole
// tree was replaced remotely and must be reloaded.
type StateChange struct {
	RootChanged bool
}
