package domain

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the scheduling engine owns
// locally. SalesOrder, ProductionOrder and ProductionPhase are owned by
// the manufacturing system-of-record and reached only through the
// Gateway; this process persists just its own proposal history and the
// SO↔PO tracking it needs to survive a restart.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Schedule{},
		&POTracking{},
	)
}
