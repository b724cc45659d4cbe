package domain

// ActorID is a per-room member number. It is only unique inside one room
// and gets reused once its holder leaves.
type ActorID int

// NoActor marks a session that holds no membership.
const NoActor ActorID = 0

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	ID     ActorID
	User   *User
	Master bool
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user *User) *Member {
	return &Member{User: user}
}
