package catalog

import "slices"

var (
	reporterRoles    = []string{"Mandated Reporter", "Non-mandated Reporter", "Anonymous Reporter", "Parent", "Caregiver"}
	nonReporterRoles = []string{"Victim", "Alleged Perpetrator"}
)

// ReporterRoles lists the roles describing who filed a report. A participant
// holds at most one of them.
func ReporterRoles() []string { return slices.Clone(reporterRoles) }

// NonReporterRoles lists the roles a participant may hold in any combination.
func NonReporterRoles() []string { return slices.Clone(nonReporterRoles) }

// Roles lists every role, non-reporter roles first.
func Roles() []string {
	return slices.Concat(nonReporterRoles, reporterRoles)
}

// IsReporterRole reports whether role belongs to the reporter group.
func IsReporterRole(role string) bool {
	return slices.Contains(reporterRoles, role)
}

// IsRole reports whether role is in the catalogue.
func IsRole(role string) bool {
	return IsReporterRole(role) || slices.Contains(nonReporterRoles, role)
}
