package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every registry table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Paper{}, "Authors", &PaperAuthor{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&User{},
		&Faculty{},
		&Paper{},
		&PaperAuthorship{},
		&Project{},
		&Patent{},
		&DatasetImportRun{},
	)
}
