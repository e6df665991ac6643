package registry

import "log/slog"

// Default returns a registry seeded with the built-in catalog. The ids match
// the integrations table of the workflow database; deployments that need a
// live catalog should load one through a Source instead.
func Default(logger *slog.Logger) *Registry {
	return New(logger, DefaultFamilies())
}

// DefaultFamilies returns the built-in integration catalog in match
// priority order.
func DefaultFamilies() []Family {
	return []Family{
		{
			Keyword:            "email",
			ID:                 48,
			TypeName:           "Email",
			DefaultTask:        "send_email",
			DefaultDisplayName: "Send Email",
			Tasks: []Task{
				{Name: "send_email", DisplayName: "Send Email", RequiredParams: []string{"to", "subject", "body"}},
				{Name: "send_bulk_email", DisplayName: "Send Bulk Email", RequiredParams: []string{"recipients", "subject", "body"}},
			},
		},
		{
			Keyword:            "aws",
			ID:                 42,
			TypeName:           "AWS",
			DefaultTask:        "list_blocked_ips_waf",
			DefaultDisplayName: "List Blocked IPs",
			Tasks: []Task{
				{Name: "list_blocked_ips_waf", DisplayName: "List Blocked IPs", RequiredParams: []string{"ipset_name", "scope"}},
				{Name: "unblock_ip_waf", DisplayName: "Unblock IP", RequiredParams: []string{"ipset_name", "ip", "scope"}},
			},
		},
		{
			Keyword:            "github",
			ID:                 49,
			TypeName:           "Github",
			DefaultTask:        "create_issue",
			DefaultDisplayName: "Create Issue",
			Tasks: []Task{
				{Name: "create_issue", DisplayName: "Create Issue", RequiredParams: []string{"params"}},
				{Name: "list_projects", DisplayName: "List Projects", RequiredParams: []string{"params"}},
			},
		},
		{
			Keyword:            "gitlab",
			ID:                 45,
			TypeName:           "Gitlab",
			DefaultTask:        "create_issue",
			DefaultDisplayName: "Create Issue",
			Tasks: []Task{
				{Name: "create_issue", DisplayName: "Create Issue", RequiredParams: []string{"params"}},
				{Name: "list_projects", DisplayName: "List Projects", RequiredParams: []string{"params"}},
			},
		},
	}
}
