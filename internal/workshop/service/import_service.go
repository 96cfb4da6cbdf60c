package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Terml/ERP-system/internal/shared/cache"
	"github.com/Terml/ERP-system/internal/shared/storage"
	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
)

const importChunkSize = 100

// headerAliases spreadsheet column names accepted for each field, both
// English and Russian.
var headerAliases = map[string]string{
	"name":        "name",
	"название":    "name",
	"наименование": "name",
	"type":        "type",
	"тип":         "type",
	"unit":        "unit",
	"ед. изм.":    "unit",
	"единица":     "unit",
	"description": "description",
	"описание":    "description",
	"price":       "price",
	"цена":        "price",
}

// ImportResult per-row outcome counts of a product import.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportService loads product catalogs from uploaded spreadsheets.
// Rows are written in chunked transactions so one bad chunk does not
// throw away the whole file.
type ImportService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	store   *storage.Storage
	effects *SideEffects
	logger  *zap.Logger
}

func NewImportService(db *gorm.DB, repos *repository.Repositories, store *storage.Storage, effects *SideEffects, logger *zap.Logger) *ImportService {
	return &ImportService{db: db, repos: repos, store: store, effects: effects, logger: logger}
}

// ImportProducts parses the workbook and upserts products. With
// overwrite, rows matching an existing product name update it;
// otherwise duplicates are skipped.
func (s *ImportService) ImportProducts(ctx context.Context, r io.Reader, overwrite bool) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ValidationError{Field: "file", Reason: "not a valid spreadsheet"}
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, &ValidationError{Field: "file", Reason: "sheet has no data rows"}
	}

	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	data := rows[1:]
	for start := 0; start < len(data); start += importChunkSize {
		end := start + importChunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[start:end]

		err := s.db.Transaction(func(tx *gorm.DB) error {
			for i, row := range chunk {
				rowNum := start + i + 2
				if err := s.importRow(ctx, tx, columns, row, overwrite, result); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("import chunk at row %d: %w", start+2, err)
		}
	}

	s.logger.Info("product import finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	s.effects.Flush(ctx, cache.TagProducts, cache.TagReference, cache.TagStatistics)
	return result, nil
}

// ImportFromStorage runs an import of a previously uploaded file.
// Called by the queue worker.
func (s *ImportService) ImportFromStorage(ctx context.Context, p ImportExcelPayload) error {
	rc, err := s.store.Get(ctx, p.ObjectKey)
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = s.ImportProducts(ctx, rc, p.Overwrite)
	return err
}

func (s *ImportService) importRow(ctx context.Context, tx *gorm.DB, columns map[string]int, row []string, overwrite bool, result *ImportResult) error {
	get := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	name := get("name")
	if name == "" {
		return errors.New("name is empty")
	}

	ptype := strings.ToLower(get("type"))
	switch ptype {
	case "", "product", "продукт", "изделие":
		ptype = entity.ProductTypeProduct
	case "material", "материал", "сырье":
		ptype = entity.ProductTypeMaterial
	default:
		return fmt.Errorf("unknown type %q", ptype)
	}

	price := 0.0
	if raw := get("price"); raw != "" {
		var err error
		price, err = strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil || price < 0 {
			return fmt.Errorf("bad price %q", raw)
		}
	}

	unit := get("unit")
	if unit == "" {
		unit = "pcs"
	}

	existing, err := s.repos.Product.FindByName(ctx, tx, name)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if existing != nil {
		if !overwrite {
			result.Skipped++
			return nil
		}
		existing.Type = ptype
		existing.Unit = unit
		existing.Description = get("description")
		existing.Price = price
		if err := s.repos.Product.UpdateTx(ctx, tx, existing); err != nil {
			return err
		}
		result.Updated++
		return nil
	}

	product := &entity.Product{
		Name:        name,
		Type:        ptype,
		Unit:        unit,
		Description: get("description"),
		Price:       price,
	}
	if err := s.repos.Product.CreateTx(ctx, tx, product); err != nil {
		return err
	}
	result.Created++
	return nil
}

// mapHeader resolves the header row into field -> column index.
func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if field, ok := headerAliases[key]; ok {
			if _, dup := columns[field]; !dup {
				columns[field] = i
			}
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil, &ValidationError{Field: "file", Reason: "header row has no name column"}
	}
	return columns, nil
}
