package model

// GroupSummary is a sidebar entry for a group.
type GroupSummary struct {
	Group
	MemberCount int  `json:"member_count"`
	Joined      bool `json:"joined"`
}

// View is the state a presentation layer renders. It is derived from the
// session and the stores on every read and never stored.
type View struct {
	SessionID string         `json:"session_id"`
	State     AuthState      `json:"state"`
	Tab       Tab            `json:"tab,omitempty"`
	User      *User          `json:"user,omitempty"`
	Target    *Target        `json:"target,omitempty"`
	Peer      *User          `json:"peer,omitempty"`
	Group     *Group         `json:"group,omitempty"`
	Denied    bool           `json:"access_denied"`
	Thread    []Message      `json:"thread,omitempty"`
	Friends   []User         `json:"friends,omitempty"`
	Groups    []GroupSummary `json:"groups,omitempty"`
}
