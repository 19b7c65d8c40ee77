package nav

import (
	"queueboard/infrastructure/rbac"
	"queueboard/models"
)

type Link struct {
	Label  string
	Href   string
	Active bool
}

// TopNavData is shared with officer page renderers.
type TopNavData struct {
	DisplayName string
	Role        string
	Links       []Link
}

var officerLinks = []struct {
	code  string
	label string
	href  string
}{
	{code: rbac.CodeQueueView, label: "Queue", href: "/officer/queue"},
	{code: rbac.CodeDashboardView, label: "Dashboard", href: "/officer/dashboard"},
	{code: rbac.CodeQueueExport, label: "Export CSV", href: "/officer/queue.csv"},
}

// BuildTopNavData shows only the links the session's permissions allow.
func BuildTopNavData(session models.Session, currentPath string) TopNavData {
	name := session.Officer.DisplayName
	if name == "" {
		name = session.Officer.Username
	}
	data := TopNavData{DisplayName: name, Role: session.Officer.Role}
	for _, l := range officerLinks {
		if session.ScreenPermissions[l.code] != 1 {
			continue
		}
		data.Links = append(data.Links, Link{Label: l.label, Href: l.href, Active: l.href == currentPath})
	}
	return data
}
