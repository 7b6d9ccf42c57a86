// Copyright 2026 The HostFlow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package authz gates every entry point with an explicit role predicate.
// Ownership of individual records is not decided here: repositories scope
// their lookups to the requesting landlord or tenant, so out-of-scope
// access surfaces as not-found rather than forbidden.
package authz

// Role is the coarse account type carried by every identity.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleLandlord Role = "landlord"
	RoleTenant   Role = "tenant"
)

// Operation names a guarded capability.
type Operation string

const (
	OpManageProperties Operation = "manage_properties"
	OpManageUnits      Operation = "manage_units"
	OpManageLeases     Operation = "manage_leases"
	OpManagePayments   Operation = "manage_payments"
	OpProvisionTenants Operation = "provision_tenants"
	OpViewDashboard    Operation = "view_dashboard"
	OpViewReports      Operation = "view_reports"
	OpManageTickets    Operation = "manage_tickets"
	OpPayOwnRent       Operation = "pay_own_rent"
	OpSubmitTicket     Operation = "submit_ticket"
	OpViewOwnPortal    Operation = "view_own_portal"
	OpDownloadReceipt  Operation = "download_receipt"
)

// landlordOps are the property-management capabilities.
var landlordOps = map[Operation]bool{
	OpManageProperties: true,
	OpManageUnits:      true,
	OpManageLeases:     true,
	OpManagePayments:   true,
	OpProvisionTenants: true,
	OpViewDashboard:    true,
	OpViewReports:      true,
	OpManageTickets:    true,
	OpDownloadReceipt:  true,
}

// tenantOps are the renter-facing capabilities.
var tenantOps = map[Operation]bool{
	OpPayOwnRent:      true,
	OpSubmitTicket:    true,
	OpViewOwnPortal:   true,
	OpDownloadReceipt: true,
}

// CanAccess reports whether a role may perform an operation. Admin may
// perform everything.
func CanAccess(role Role, op Operation) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleLandlord:
		return landlordOps[op]
	case RoleTenant:
		return tenantOps[op]
	default:
		return false
	}
}
