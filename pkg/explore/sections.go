package explore

import (
	"net/url"
	"slices"
	"strconv"
)

// Endpoint addresses one entity section on the API.
//
// Active Directory sections live under /api/v2/<entity>/<id>/<related>.
// Azure sections share /api/v2/azure/<entity> and pass the id and the
// related entity type as query parameters.
type Endpoint struct {
	Azure   bool   `json:"azure,omitempty"`
	Entity  string `json:"entity"`
	Related string `json:"related"`
}

// Path returns the request path for the entity with the given id.
func (e Endpoint) Path(id string) string {
	if e.Azure {
		return "/api/v2/azure/" + e.Entity
	}
	return "/api/v2/" + e.Entity + "/" + url.PathEscape(id) + "/" + e.Related
}

// Query returns the request query for one page of the section.
func (e Endpoint) Query(id string, page Page) url.Values {
	q := url.Values{}
	if e.Azure {
		q.Set("object_id", id)
		q.Set("related_entity_type", e.Related)
	}
	if page.Skip > 0 {
		q.Set("skip", strconv.Itoa(page.Skip))
	}
	if page.Limit > 0 {
		q.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.Graph {
		q.Set("type", "graph")
	}
	return q
}

// Page selects a slice of a section, or its graph form.
type Page struct {
	Skip  int
	Limit int
	Graph bool
}

// DefaultPageLimit is the page size used by table fetches.
const DefaultPageLimit = 128

// Section is one node of an entity's section tree. Leaves carry an
// endpoint; inner sections only group their children.
type Section struct {
	Label    string
	Endpoint *Endpoint
	Sections []Section
}

// IsLeaf reports whether s addresses an endpoint.
func (s Section) IsLeaf() bool { return s.Endpoint != nil }

// Walk visits s and its descendants depth first, children in order, and
// stops at the first section fn accepts.
func (s Section) Walk(fn func(Section) bool) (Section, bool) {
	if fn(s) {
		return s, true
	}
	for _, c := range s.Sections {
		if found, ok := c.Walk(fn); ok {
			return found, true
		}
	}
	return Section{}, false
}

// SectionTree is the ordered top-level sections of one entity kind.
type SectionTree []Section

// Walk runs [Section.Walk] over every root in order.
func (t SectionTree) Walk(fn func(Section) bool) (Section, bool) {
	for _, s := range t {
		if found, ok := s.Walk(fn); ok {
			return found, true
		}
	}
	return Section{}, false
}

// FindLeaf returns the first leaf labelled label.
func (t SectionTree) FindLeaf(label string) (Section, bool) {
	return t.Walk(func(s Section) bool {
		return s.IsLeaf() && s.Label == label
	})
}

// FirstLeaf returns the first leaf in depth-first order.
func (t SectionTree) FirstLeaf() (Section, bool) {
	return t.Walk(Section.IsLeaf)
}

// Sections returns the section tree for an entity kind.
func Sections(kind string) (SectionTree, bool) {
	t, ok := sectionTables[kind]
	return t, ok
}

// EntityKinds lists every kind with a section tree, sorted.
func EntityKinds() []string {
	out := make([]string, 0, len(sectionTables))
	for k := range sectionTables {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// =============================================================================
// Tables
// =============================================================================

func ad(entity, related, label string) Section {
	return Section{Label: label, Endpoint: &Endpoint{Entity: entity, Related: related}}
}

func az(entity, related, label string) Section {
	return Section{Label: label, Endpoint: &Endpoint{Azure: true, Entity: entity, Related: related}}
}

func group(label string, children ...Section) Section {
	return Section{Label: label, Sections: children}
}

var descendantLabels = map[string]string{
	"users":                "Descendant Users",
	"groups":               "Descendant Groups",
	"management-groups":    "Descendant Management Groups",
	"subscriptions":        "Descendant Subscriptions",
	"resource-groups":      "Descendant Resource Groups",
	"virtual-machines":     "Descendant VMs",
	"managed-clusters":     "Descendant Managed Clusters",
	"vm-scale-sets":        "Descendant VM Scale Sets",
	"container-registries": "Descendant Container Registries",
	"web-apps":             "Descendant Web Apps",
	"automation-accounts":  "Descendant Automation Accounts",
	"key-vaults":           "Descendant Key Vaults",
	"function-apps":        "Descendant Function Apps",
	"logic-apps":           "Descendant Logic Apps",
	"applications":         "Descendant App Registrations",
	"service-principals":   "Descendant Service Principals",
	"devices":              "Descendant Devices",
}

func descendants(entity string, kinds ...string) Section {
	g := group("Descendant Objects")
	for _, k := range kinds {
		g.Sections = append(g.Sections, az(entity, "descendent-"+k, descendantLabels[k]))
	}
	return g
}

// Resource kinds shared by every Azure container scope.
var azResources = []string{
	"virtual-machines", "managed-clusters", "vm-scale-sets", "container-registries",
	"web-apps", "automation-accounts", "key-vaults", "function-apps", "logic-apps",
}

func azInbound(entity string) Section { return az(entity, "inbound-control", "Inbound Object Control") }

func azOutbound(entity string) Section { return az(entity, "outbound-control", "Outbound Object Control") }

func adInbound(entity string) Section { return ad(entity, "controllers", "Inbound Object Control") }

func adOutbound(entity string) Section { return ad(entity, "controllables", "Outbound Object Control") }

var sectionTables = map[string]SectionTree{
	// Active Directory
	"Base": {adOutbound("base"), adInbound("base")},
	"User": {
		ad("users", "sessions", "Sessions"),
		ad("users", "memberships", "Member Of"),
		ad("users", "admin-rights", "Local Admin Privileges"),
		group("Execution Privileges",
			ad("users", "rdp-rights", "RDP Privileges"),
			ad("users", "ps-remote-rights", "PSRemote Privileges"),
			ad("users", "dcom-rights", "DCOM Privileges"),
			ad("users", "sql-admin-rights", "SQL Admin Rights"),
			ad("users", "constrained-delegation-rights", "Constrained Delegation Privileges"),
		),
		adOutbound("users"),
		adInbound("users"),
	},
	"Computer": {
		ad("computers", "sessions", "Sessions"),
		ad("computers", "admin-users", "Local Admins"),
		group("Inbound Execution Privileges",
			ad("computers", "rdp-users", "RDP Users"),
			ad("computers", "ps-remote-users", "PSRemote Users"),
			ad("computers", "dcom-users", "DCOM Users"),
			ad("computers", "sql-admins", "SQL Admin Users"),
			ad("computers", "constrained-users", "Constrained Delegation Users"),
		),
		ad("computers", "group-membership", "Member Of"),
		ad("computers", "admin-rights", "Local Admin Privileges"),
		group("Outbound Execution Privileges",
			ad("computers", "rdp-rights", "RDP Privileges"),
			ad("computers", "ps-remote-rights", "PSRemote Rights"),
			ad("computers", "dcom-rights", "DCOM Privileges"),
			ad("computers", "constrained-delegation-rights", "Constrained Delegation Privileges"),
		),
		adInbound("computers"),
		adOutbound("computers"),
	},
	"Group": {
		ad("groups", "sessions", "Sessions"),
		ad("groups", "members", "Members"),
		ad("groups", "memberships", "Member Of"),
		ad("groups", "admin-rights", "Local Admin Privileges"),
		group("Execution Privileges",
			ad("groups", "rdp-rights", "RDP Privileges"),
			ad("groups", "dcom-rights", "DCOM Privileges"),
			ad("groups", "ps-remote-rights", "PSRemote Rights"),
		),
		adInbound("groups"),
		adOutbound("groups"),
	},
	"Domain": {
		group("Foreign Members",
			ad("domains", "foreign-users", "Foreign Users"),
			ad("domains", "foreign-groups", "Foreign Groups"),
			ad("domains", "foreign-admins", "Foreign Admins"),
			ad("domains", "foreign-gpo-controllers", "Foreign GPO Controllers"),
		),
		ad("domains", "inbound-trusts", "Inbound Trusts"),
		ad("domains", "outbound-trusts", "Outbound Trusts"),
		ad("domains", "controllers", "Controllers"),
	},
	"GPO": {
		group("Affected Objects",
			ad("gpos", "ous", "OUs"),
			ad("gpos", "computers", "Computers"),
			ad("gpos", "users", "Users"),
			ad("gpos", "tier-zero", "Tier Zero Objects"),
		),
		adInbound("gpos"),
	},
	"OU": {
		ad("ous", "gpos", "Affecting GPOs"),
		ad("ous", "groups", "Groups"),
		ad("ous", "computers", "Computers"),
		ad("ous", "users", "Users"),
	},
	"Container":    {adInbound("containers")},
	"AIACA":        {adInbound("aiacas")},
	"CertTemplate": {adInbound("certtemplates")},
	"EnterpriseCA": {adInbound("enterprisecas")},
	"NTAuthStore":  {adInbound("ntauthstores")},
	"RootCA":       {adInbound("rootcas")},

	// Azure
	"AZBase":       {azOutbound("az-base"), azInbound("az-base")},
	"AZApp":        {azInbound("applications")},
	"AZVMScaleSet": {azInbound("vm-scale-sets")},
	"AZDevice": {
		az("devices", "inbound-execution-privileges", "Local Admins"),
		azInbound("devices"),
	},
	"AZFunctionApp": {azInbound("function-apps")},
	"AZGroup": {
		az("groups", "group-members", "Members"),
		az("groups", "group-membership", "Member Of"),
		az("groups", "roles", "Roles"),
		azInbound("groups"),
		azOutbound("groups"),
	},
	"AZKeyVault": {
		group("Vault Readers",
			az("key-vaults", "key-readers", "Key Readers"),
			az("key-vaults", "certificate-readers", "Certificate Readers"),
			az("key-vaults", "secret-readers", "Secret Readers"),
			az("key-vaults", "all-readers", "All Readers"),
		),
		azInbound("key-vaults"),
	},
	"AZManagementGroup": {
		descendants("management-groups", append([]string{"management-groups", "subscriptions", "resource-groups"}, azResources...)...),
		azInbound("management-groups"),
	},
	"AZResourceGroup": {
		descendants("resource-groups", azResources...),
		azInbound("resource-groups"),
	},
	"AZRole": {az("roles", "active-assignments", "Active Assignments")},
	"AZServicePrincipal": {
		az("service-principals", "roles", "Roles"),
		azInbound("service-principals"),
		azOutbound("service-principals"),
		az("service-principals", "inbound-abusable-app-role-assignments", "Inbound Abusable App Role Assignments"),
		az("service-principals", "outbound-abusable-app-role-assignments", "Outbound Abusable App Role Assignments"),
	},
	"AZSubscription": {
		descendants("subscriptions", append([]string{"resource-groups"}, azResources...)...),
		azInbound("subscriptions"),
	},
	"AZTenant": {
		descendants("tenants", append(append([]string{"users", "groups", "management-groups", "subscriptions", "resource-groups"}, azResources...),
			"applications", "service-principals", "devices")...),
		azInbound("tenants"),
	},
	"AZUser": {
		az("users", "group-membership", "Member Of"),
		az("users", "roles", "Roles"),
		az("users", "outbound-execution-privileges", "Execution Privileges"),
		azOutbound("users"),
		azInbound("users"),
	},
	"AZVM": {
		az("vms", "inbound-execution-privileges", "Local Admins"),
		azInbound("vms"),
	},
	"AZManagedCluster":    {azInbound("managed-clusters")},
	"AZContainerRegistry": {azInbound("container-registries")},
	"AZWebApp":            {azInbound("web-apps")},
	"AZLogicApp":          {azInbound("logic-apps")},
	"AZAutomationAccount": {azInbound("automation-accounts")},
}
