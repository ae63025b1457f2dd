package edgefilter

// Category is the top level of the edge taxonomy.
type Category struct {
	Name          string
	Subcategories []Subcategory
}

// Subcategory groups edge types under a category.
type Subcategory struct {
	Name      string
	EdgeTypes []string
}

// Category names.
const (
	CategoryActiveDirectory = "Active Directory"
	CategoryAzure           = "Azure"
)

// Taxonomy is the static edge-type reference data. Subcategory names are
// only unique within their category.
var Taxonomy = []Category{
	{
		Name: CategoryActiveDirectory,
		Subcategories: []Subcategory{
			{Name: "Active Directory Structure", EdgeTypes: []string{
				"Contains", "DCFor", "GPLink", "ClaimSpecialIdentity", "HasSIDHistory", "MemberOf", "SameForestTrust",
			}},
			{Name: "Lateral Movement", EdgeTypes: []string{
				"AdminTo", "AllowedToAct", "AllowedToDelegate", "CanPSRemote", "CanRDP", "ExecuteDCOM", "SQLAdmin", "CanBackup",
			}},
			{Name: "Credential Access", EdgeTypes: []string{
				"CoerceToTGT", "DCSync", "DumpSMSAPassword", "HasSession", "ReadGMSAPassword", "ReadLAPSPassword",
				"SyncLAPSPassword", "HasTrustKeys",
			}},
			{Name: "Basic Object Manipulation", EdgeTypes: []string{
				"AddMember", "AddSelf", "AllExtendedRights", "ForceChangePassword", "GenericAll", "Owns",
				"OwnsLimitedRights", "ProtectAdminGroups", "GenericWrite", "WriteDacl", "WriteOwner", "WriteOwnerLimitedRights",
			}},
			{Name: "Advanced Object Manipulation", EdgeTypes: []string{
				"AddAllowedToAct", "AddKeyCredentialLink", "WriteAccountRestrictions", "WriteGPLink", "WriteSPN",
			}},
			{Name: "Active Directory Certificate Services", EdgeTypes: []string{
				"GoldenCert", "ManageCA", "ManageCertificates", "ADCSESC1", "ADCSESC3", "ADCSESC4", "ADCSESC6a",
				"ADCSESC6b", "ADCSESC9a", "ADCSESC9b", "ADCSESC10a", "ADCSESC10b", "ADCSESC13",
			}},
			{Name: "Cross Forest Trust Abuse", EdgeTypes: []string{
				"SpoofSIDHistory", "AbuseTGTDelegation",
			}},
			{Name: "Cross Platform", EdgeTypes: []string{
				"SyncedToEntraUser",
			}},
			{Name: "NTLM Relay", EdgeTypes: []string{
				"CoerceAndRelayNTLMToSMB", "CoerceAndRelayNTLMToADCS", "CoerceAndRelayNTLMToLDAP", "CoerceAndRelayNTLMToLDAPS",
			}},
		},
	},
	{
		Name: CategoryAzure,
		Subcategories: []Subcategory{
			{Name: "Structure", EdgeTypes: []string{
				"AZAppAdmin", "AZCloudAppAdmin", "AZContains", "AZGlobalAdmin", "AZHasRole", "AZManagedIdentity",
				"AZMemberOf", "AZNodeResourceGroup", "AZPrivilegedAuthAdmin", "AZPrivilegedRoleAdmin", "AZRunsAs",
				"AZRoleEligible", "AZRoleApprover",
			}},
			{Name: "Basic AzureAD Object Manipulation", EdgeTypes: []string{
				"AZAddMembers", "AZAddOwner", "AZAddSecret", "AZExecuteCommand", "AZGrant", "AZGrantSelf", "AZOwns",
				"AZResetPassword",
			}},
			{Name: "MS Graph App Role Abuses", EdgeTypes: []string{
				"AZMGAddMember", "AZMGAddOwner", "AZMGAddSecret", "AZMGGrantAppRoles", "AZMGGrantRole",
			}},
			{Name: "Secret/Credential Access", EdgeTypes: []string{
				"AZGetCertificates", "AZGetKeys", "AZGetSecrets",
			}},
			{Name: "Basic AzureRM Object Manipulation", EdgeTypes: []string{
				"AZAvereContributor", "AZKeyVaultContributor", "AZOwner", "AZContributor", "AZUserAccessAdministrator",
				"AZVMAdminLogin", "AZVMContributor",
			}},
			{Name: "Advanced AzureRM Object Manipulation", EdgeTypes: []string{
				"AZAKSContributor", "AZAutomationContributor", "AZLogicAppContributor", "AZWebsiteContributor",
			}},
			{Name: "Cross Platform", EdgeTypes: []string{
				"SyncedToADUser",
			}},
		},
	},
}

// AllEdgeTypes returns every edge type of the taxonomy in taxonomy order.
func AllEdgeTypes() []string {
	var out []string
	for _, c := range Taxonomy {
		for _, s := range c.Subcategories {
			out = append(out, s.EdgeTypes...)
		}
	}
	return out
}

// IsKnown reports whether edgeType appears in the taxonomy.
func IsKnown(edgeType string) bool {
	_, ok := knownSet[edgeType]
	return ok
}

var knownSet = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, t := range AllEdgeTypes() {
		m[t] = struct{}{}
	}
	return m
}()
