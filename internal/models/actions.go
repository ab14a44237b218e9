package models

import "strings"

// JoinAction is the decision taken on a pending join request.
type JoinAction string

const (
	JoinAccept JoinAction = "ACCEPT"
	JoinReject JoinAction = "REJECT"
)

// ParseJoinAction accepts ACCEPT or REJECT in any letter case.
func ParseJoinAction(s string) (JoinAction, bool) {
	switch a := JoinAction(strings.ToUpper(strings.TrimSpace(s))); a {
	case JoinAccept, JoinReject:
		return a, true
	default:
		return "", false
	}
}

// AdminAction changes a member's admin standing.
type AdminAction string

const (
	AdminPromote AdminAction = "PROMOTE"
	AdminDemote  AdminAction = "DEMOTE"
)

// ParseAdminAction accepts PROMOTE or DEMOTE in any letter case.
func ParseAdminAction(s string) (AdminAction, bool) {
	switch a := AdminAction(strings.ToUpper(strings.TrimSpace(s))); a {
	case AdminPromote, AdminDemote:
		return a, true
	default:
		return "", false
	}
}
