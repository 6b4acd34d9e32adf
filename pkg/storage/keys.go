package storage

import "strings"

// Draft kinds.
const (
	KindVCard    = "vcard"
	KindCampaign = "campaign"
)

// draftKey scopes a draft to the organization and user that owns it, so two
// logins sharing a workspace never see each other's edits.
func draftKey(org, user, id string) string {
	if id == "" {
		id = "-"
	}
	return strings.Join([]string{org, user, id}, "|")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
