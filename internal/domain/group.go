package domain

import "time"

// Group represents a billing group. MemberIDs preserves join order and only
// grows: membership is never revoked, corrections happen via new events.
type Group struct {
	ID          string
	Name        string
	Description string
	Currency    string
	OwnerID     string
	MemberIDs   []string
	CreatedAt   time.Time
}

// HasMember reports whether the member belongs to the group.
func (g *Group) HasMember(memberID string) bool {
	for _, id := range g.MemberIDs {
		if id == memberID {
			return true
		}
	}

	return false
}

// AddMember appends a member in join order.
func (g *Group) AddMember(memberID string) error {
	if g.HasMember(memberID) {
		return ErrMemberAlreadyInGroup
	}

	g.MemberIDs = append(g.MemberIDs, memberID)

	return nil
}
