package entity

import "gorm.io/gorm"

// AutoMigrate migrates all workshop tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// reference data
		&Company{},
		&Product{},
		&User{},

		// production
		&Order{},
		&ProductionTask{},
		&TaskComponent{},
		&TaskInspection{},

		// archive
		&ArchivedOrder{},
		&ArchivedProductionTask{},
		&ArchivedTaskComponent{},

		// side effects
		&Notification{},
		&Report{},
	)
}
