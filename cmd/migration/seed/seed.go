package seed

import (
	"fileforge/config"
	. "fileforge/internal/models"
	"fileforge/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DemoUserID owns the development folder tree.
var DemoUserID = uuid.MustParse("0192f5a0-0000-7000-8000-000000000001")

type seedFolder struct {
	name     string
	children []seedFolder
}

var demoTree = []seedFolder{
	{name: "Documents", children: []seedFolder{
		{name: "Reports 2024"},
		{name: "Invoices"},
	}},
	{name: "Images", children: []seedFolder{
		{name: "Holiday Photos"},
	}},
	{name: "Projects"},
}

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data", "userID", DemoUserID)

	return db.Transaction(func(tx *gorm.DB) error {
		return seedFolders(tx, nil, demoTree, log)
	})
}

func seedFolders(tx *gorm.DB, parentID *uuid.UUID, folders []seedFolder, log logger.Logger) error {
	for _, entry := range folders {
		folder := Folder{
			Name:     entry.name,
			Slug:     utils.Slugify(entry.name),
			UserID:   DemoUserID,
			ParentID: parentID,
		}

		query := tx.Where("user_id = ? AND slug = ?", DemoUserID, folder.Slug)
		if parentID == nil {
			query = query.Where("parent_id IS NULL")
		} else {
			query = query.Where("parent_id = ?", *parentID)
		}

		if err := query.FirstOrCreate(&folder).Error; err != nil {
			return log.Err("failed to seed folder", err, "name", entry.name)
		}
		log.Info("Seeded folder", "name", folder.Name, "id", folder.ID)

		if err := seedFolders(tx, &folder.ID, entry.children, log); err != nil {
			return err
		}
	}
	return nil
}
