package models

type OrganizationSummary struct {
	OrgID       string  `json:"org_id"`
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Role        string  `json:"role"`
	MemberCount *int    `json:"member_count,omitempty"`
}

// CanInvite reports whether the caller's role allows inviting into the org.
// The match is exact, as returned by the backend.
func (o OrganizationSummary) CanInvite() bool {
	return o.Role == string(RoleOwner) || o.Role == string(RoleAdmin)
}

// InvitableOrganizations keeps the orgs whose role allows inviting, in order.
func InvitableOrganizations(orgs []OrganizationSummary) []OrganizationSummary {
	out := make([]OrganizationSummary, 0, len(orgs))
	for _, org := range orgs {
		if org.CanInvite() {
			out = append(out, org)
		}
	}
	return out
}

type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Membership struct {
	OrgID  string `json:"org_id"`
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}
