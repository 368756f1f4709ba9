package store

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store wraps a *gorm.DB with the short, single-purpose transactions the
// catalog needs — every mutation is a short transaction.
type Store struct {
	db *gorm.DB
}

// Open connects to a SQLite database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Project{}, &ImageDescriptor{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// CreateProject inserts a new project row in StatusUploaded.
func (s *Store) CreateProject(p *Project) error {
	p.Status = StatusUploaded
	if err := s.db.Create(p).Error; err != nil {
		return fmt.Errorf("store: create project: %w", err)
	}
	return nil
}

// GetProject loads a project by id.
func (s *Store) GetProject(id uint) (*Project, error) {
	var p Project
	if err := s.db.First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("store: get project %d: %w", id, err)
	}
	return &p, nil
}

// SetProjectStatus transitions a project's status field alone.
func (s *Store) SetProjectStatus(id uint, status ProjectStatus) error {
	if err := s.db.Model(&Project{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return fmt.Errorf("store: set project %d status: %w", id, err)
	}
	return nil
}

// CreateDescriptors inserts the image descriptors discovered by C1-C3 and
// sets the project's total_images and status to extracted, in one
// transaction so a crash mid-extraction never leaves a partial descriptor set
// paired with an advanced status.
func (s *Store) CreateDescriptors(projectID uint, descriptors []*ImageDescriptor) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, d := range descriptors {
			d.ProjectID = projectID
			d.Status = ImagePending
			if err := tx.Create(d).Error; err != nil {
				return fmt.Errorf("store: create descriptor: %w", err)
			}
		}
		return tx.Model(&Project{}).Where("id = ?", projectID).Updates(map[string]any{
			"total_images": len(descriptors),
			"status":       StatusExtracted,
		}).Error
	})
}

// PendingDescriptors returns a project's not-yet-processed images in
// (page, index) order.
func (s *Store) PendingDescriptors(projectID uint) ([]ImageDescriptor, error) {
	var descriptors []ImageDescriptor
	err := s.db.Where("project_id = ? AND status = ?", projectID, ImagePending).
		Order("page_number, image_index").Find(&descriptors).Error
	if err != nil {
		return nil, fmt.Errorf("store: pending descriptors for project %d: %w", projectID, err)
	}
	return descriptors, nil
}

// AllDescriptors returns every image descriptor for a project, in export order.
func (s *Store) AllDescriptors(projectID uint) ([]ImageDescriptor, error) {
	var descriptors []ImageDescriptor
	err := s.db.Where("project_id = ?", projectID).
		Order("page_number, image_index").Find(&descriptors).Error
	if err != nil {
		return nil, fmt.Errorf("store: all descriptors for project %d: %w", projectID, err)
	}
	return descriptors, nil
}

// UpdateImageResult updates the image row with its model result, then bumps
// the project's processed_images, in a single transaction so a crash
// between the two never happens.
func (s *Store) UpdateImageResult(descriptorID, projectID uint, imageType, altText, rawResponse string, konfidenz Konfidenz, status ImageStatus) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ImageDescriptor{}).Where("id = ?", descriptorID).Updates(map[string]any{
			"image_type":   imageType,
			"alt_text":     altText,
			"raw_response": rawResponse,
			"konfidenz":    konfidenz,
			"status":       status,
		}).Error; err != nil {
			return fmt.Errorf("store: update descriptor %d: %w", descriptorID, err)
		}
		return tx.Model(&Project{}).Where("id = ?", projectID).
			UpdateColumn("processed_images", gorm.Expr("processed_images + 1")).Error
	})
}

// SetAltTextEdited records a user override for the exported alt-text.
func (s *Store) SetAltTextEdited(descriptorID uint, text string) error {
	if err := s.db.Model(&ImageDescriptor{}).Where("id = ?", descriptorID).
		Update("alt_text_edited", text).Error; err != nil {
		return fmt.Errorf("store: set alt_text_edited for %d: %w", descriptorID, err)
	}
	return nil
}

// DeleteProject removes a project and its descriptors.
func (s *Store) DeleteProject(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&ImageDescriptor{}).Error; err != nil {
			return fmt.Errorf("store: delete descriptors for project %d: %w", id, err)
		}
		if err := tx.Delete(&Project{}, id).Error; err != nil {
			return fmt.Errorf("store: delete project %d: %w", id, err)
		}
		return nil
	})
}
