package auth

import "net/http"

// Role упорядочены: каждая следующая роль включает права предыдущей.
type Role int

const (
	RoleViewer Role = iota + 1
	RolePartner
	RoleOfficer
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleViewer:  "viewer",
	RolePartner: "partner",
	RoleOfficer: "officer",
	RoleAdmin:   "admin",
}

func (r Role) String() string {
	return roleNames[r]
}

func ParseRole(s string) (Role, bool) {
	for r, name := range roleNames {
		if name == s {
			return r, true
		}
	}
	return 0, false
}

type Capability string

const (
	CapViewDashboard      Capability = "dashboard:view"
	CapViewIndicators     Capability = "indicators:view"
	CapCalculateTarget    Capability = "indicators:calculate"
	CapViewContracts      Capability = "contracts:view"
	CapManageContracts    Capability = "contracts:manage"
	CapReconfigure        Capability = "contracts:reconfigure"
	CapReportProgress     Capability = "progress:report"
	CapViewContent        Capability = "content:view"
	CapAdministerCatalogs Capability = "catalogs:admin"
)

// Policy минимальная роль для каждой capability. Одна таблица вместо проверок в хендлерах.
var Policy = map[Capability]Role{
	CapViewDashboard:      RoleViewer,
	CapViewIndicators:     RoleViewer,
	CapViewContent:        RoleViewer,
	CapViewContracts:      RoleViewer,
	CapCalculateTarget:    RolePartner,
	CapReportProgress:     RolePartner,
	CapManageContracts:    RoleOfficer,
	CapReconfigure:        RoleAdmin,
	CapAdministerCatalogs: RoleAdmin,
}

// Allowed неизвестная capability запрещена.
func Allowed(role Role, c Capability) bool {
	need, ok := Policy[c]
	if !ok {
		return false
	}
	return role >= need
}

func RequireCapability(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", "តម្រូវឱ្យផ្ទៀងផ្ទាត់អត្តសញ្ញាណ")
				return
			}

			if !Allowed(p.Role, c) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", "គ្មានសិទ្ធិគ្រប់គ្រាន់")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
