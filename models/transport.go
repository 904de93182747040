// edumanage/models/transport.go
package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransportRoute is a shuttle route with a per-term cost. Routing geodata
// lives outside the financial core; only the billing attributes are here.
type TransportRoute struct {
	gorm.Model
	TenantID    uint            `json:"tenantId" gorm:"not null;uniqueIndex:idx_transport_route_name"`
	Name        string          `json:"name" gorm:"not null;uniqueIndex:idx_transport_route_name"`
	CostPerTerm decimal.Decimal `json:"costPerTerm" gorm:"type:numeric(12,2);not null"`
}

// TransportAssignment subscribes a student to a route. Active assignments
// feed the transport revenue target.
type TransportAssignment struct {
	gorm.Model
	TenantID  uint  `json:"tenantId" gorm:"not null;index"`
	StudentID uint  `json:"studentId" gorm:"not null;uniqueIndex:idx_transport_assignment"`
	RouteID   uint  `json:"routeId" gorm:"not null"`
	Active    *bool `json:"active" gorm:"default:true"`

	Route *TransportRoute `json:"route,omitempty" gorm:"foreignKey:RouteID"`
}
