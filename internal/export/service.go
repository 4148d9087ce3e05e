package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/openbeelab/beemon/internal/apiary"
	"github.com/openbeelab/beemon/internal/auth"
	"github.com/openbeelab/beemon/internal/hive"
	"github.com/openbeelab/beemon/internal/inspection"
	"github.com/openbeelab/beemon/internal/metrics"
	"github.com/openbeelab/beemon/internal/research"
)

const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type userDirectory interface {
	FindUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]auth.User, error)
}

type apiaryLister interface {
	ListByOwnerIncludingDeleted(ctx context.Context, ownerID uuid.UUID) ([]apiary.Apiary, error)
}

type hiveLister interface {
	ListByOwnerIncludingDeleted(ctx context.Context, ownerID uuid.UUID) ([]hive.Hive, error)
}

type inspectionSource interface {
	ListByOwnerIncludingDeleted(ctx context.Context, ownerID uuid.UUID) ([]inspection.Inspection, error)
	DefinitionsForUsers(ctx context.Context, userIDs []uuid.UUID) ([]inspection.ItemDefinition, error)
}

// objectStore is the slice of minio.Client the exporter needs.
type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

type artifactRecorder interface {
	RecordArtifact(ctx context.Context, researchID uuid.UUID, objectName string, sizeBytes int64) error
}

// Config carries the exporter's artifact settings.
type Config struct {
	Bucket       string
	AppName      string
	URLExpiry    time.Duration
	SheetMaxRows int
}

// Service renders research reports into multi-sheet spreadsheet artifacts
// stored in the object store.
type Service struct {
	users       userDirectory
	apiaries    apiaryLister
	hives       hiveLister
	inspections inspectionSource
	store       objectStore
	artifacts   artifactRecorder
	cfg         Config
	logger      *zap.Logger
	nowFunc     func() time.Time
}

// NewService constructs an export service.
func NewService(users userDirectory, apiaries apiaryLister, hives hiveLister, inspections inspectionSource, store objectStore, artifacts artifactRecorder, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SheetMaxRows <= 0 {
		cfg.SheetMaxRows = excelize.TotalRows
	}
	return &Service{
		users:       users,
		apiaries:    apiaries,
		hives:       hives,
		inspections: inspections,
		store:       store,
		artifacts:   artifacts,
		cfg:         cfg,
		logger:      logger,
		nowFunc:     time.Now,
	}
}

// Export renders the report into an xlsx workbook, uploads it and returns a
// presigned download URL. Sheets: Users, Locations, Hives, Inspections (with
// an item-definition legend header), Data.
func (s *Service) Export(ctx context.Context, res research.Research, rep research.Report) (research.ExportArtifact, error) {
	wb, err := s.buildWorkbook(ctx, rep)
	if err != nil {
		return research.ExportArtifact{}, err
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return research.ExportArtifact{}, fmt.Errorf("serialize workbook: %w", err)
	}

	objectName := s.objectName(res)
	size := int64(buf.Len())

	if _, err := s.store.PutObject(ctx, s.cfg.Bucket, objectName, bytes.NewReader(buf.Bytes()), size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return research.ExportArtifact{}, fmt.Errorf("store artifact %s: %w", objectName, err)
	}

	if err := s.artifacts.RecordArtifact(ctx, res.ID, objectName, size); err != nil {
		return research.ExportArtifact{}, fmt.Errorf("record artifact %s: %w", objectName, err)
	}

	downloadURL, err := s.store.PresignedGetObject(ctx, s.cfg.Bucket, objectName, s.cfg.URLExpiry, nil)
	if err != nil {
		return research.ExportArtifact{}, fmt.Errorf("presign artifact %s: %w", objectName, err)
	}

	metrics.ExportsGenerated.Inc()
	s.logger.Info("research export stored",
		zap.String("research_id", res.ID.String()),
		zap.String("object", objectName),
		zap.Int64("size_bytes", size),
	)

	return research.ExportArtifact{
		ObjectName:  objectName,
		SizeBytes:   size,
		DownloadURL: downloadURL.String(),
		ExpiresAt:   s.nowFunc().Add(s.cfg.URLExpiry),
	}, nil
}

func (s *Service) objectName(res research.Research) string {
	return fmt.Sprintf("%s-export-%s-%d.xlsx", s.cfg.AppName, slug(res.Name), s.nowFunc().Unix())
}

// slug reduces a research name to a filename-safe token.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "research"
	}
	return out
}

func (s *Service) buildWorkbook(ctx context.Context, rep research.Report) (*excelize.File, error) {
	wb := excelize.NewFile()

	users, err := s.users.FindUsersByIDs(ctx, rep.UserIDs)
	if err != nil {
		return nil, fmt.Errorf("load exported users: %w", err)
	}

	if err := s.writeUsersSheet(wb, users); err != nil {
		return nil, err
	}
	if err := s.writeLocationsSheet(ctx, wb, users); err != nil {
		return nil, err
	}
	if err := s.writeHivesSheet(ctx, wb, users); err != nil {
		return nil, err
	}
	if err := s.writeInspectionsSheet(ctx, wb, rep.UserIDs, users); err != nil {
		return nil, err
	}
	if err := s.writeDataSheet(wb, rep); err != nil {
		return nil, err
	}

	wb.DeleteSheet("Sheet1")
	if idx, err := wb.GetSheetIndex("Users"); err == nil {
		wb.SetActiveSheet(idx)
	}
	return wb, nil
}

func (s *Service) writeUsersSheet(wb *excelize.File, users []auth.User) error {
	w := newSheetWriter(wb, "Users", s.cfg.SheetMaxRows)
	w.row("ID", "Name", "Email", "Created")
	for _, u := range users {
		w.row(u.ID.String(), derefString(u.DisplayName), u.Email, day(u.CreatedAt))
	}
	return w.err
}

func (s *Service) writeLocationsSheet(ctx context.Context, wb *excelize.File, users []auth.User) error {
	w := newSheetWriter(wb, "Locations", s.cfg.SheetMaxRows)
	w.row("User", "Name", "Type", "Latitude", "Longitude", "Address", "Postal code", "City", "Country", "Continent", "Hives", "Created", "Deleted")
	for _, u := range users {
		apiaries, err := s.apiaries.ListByOwnerIncludingDeleted(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("list apiaries for user %s: %w", u.ID, err)
		}
		for _, a := range apiaries {
			w.row(
				u.ID.String(),
				a.Name,
				a.Type,
				derefFloat(a.CoordinateLat),
				derefFloat(a.CoordinateLon),
				derefString(a.Address),
				derefString(a.PostalCode),
				derefString(a.City),
				derefString(a.CountryCode),
				derefString(a.Continent),
				a.HiveCount,
				day(a.CreatedAt),
				deletedDay(a.DeletedAt),
			)
		}
	}
	return w.err
}

func (s *Service) writeHivesSheet(ctx context.Context, wb *excelize.File, users []auth.User) error {
	w := newSheetWriter(wb, "Hives", s.cfg.SheetMaxRows)
	w.row("User", "Name", "Type", "Color", "Brood layers", "Honey layers", "Frames", "Created", "Deleted")
	for _, u := range users {
		hives, err := s.hives.ListByOwnerIncludingDeleted(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("list hives for user %s: %w", u.ID, err)
		}
		for _, h := range hives {
			w.row(
				u.ID.String(),
				h.Name,
				h.Type,
				derefString(h.Color),
				h.BroodLayers,
				h.HoneyLayers,
				h.FrameCount,
				day(h.CreatedAt),
				deletedDay(h.DeletedAt),
			)
		}
	}
	return w.err
}

// writeInspectionsSheet lays out a legend of every item definition used by
// the exported users, then one row per inspection with item values placed in
// their definition's column.
func (s *Service) writeInspectionsSheet(ctx context.Context, wb *excelize.File, userIDs []uuid.UUID, users []auth.User) error {
	defs, err := s.inspections.DefinitionsForUsers(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("load item definitions: %w", err)
	}

	columnOf := make(map[uuid.UUID]int, len(defs))
	header := []interface{}{"User", "Created", "Impression", "Attention", "Reminder", "Reminder date", "Notes"}
	for i, d := range defs {
		columnOf[d.ID] = len(header) + i
	}
	for _, d := range defs {
		header = append(header, d.Header())
	}

	w := newSheetWriter(wb, "Inspections", s.cfg.SheetMaxRows)
	w.row(header...)

	for _, u := range users {
		inspections, err := s.inspections.ListByOwnerIncludingDeleted(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("list inspections for user %s: %w", u.ID, err)
		}
		for _, ins := range inspections {
			cells := make([]interface{}, len(header))
			cells[0] = u.ID.String()
			cells[1] = day(ins.CreatedAt)
			cells[2] = derefInt(ins.Impression)
			cells[3] = derefInt(ins.Attention)
			cells[4] = derefString(ins.Reminder)
			cells[5] = deletedDay(ins.ReminderDate)
			cells[6] = derefString(ins.Notes)
			for _, item := range ins.Items {
				if col, ok := columnOf[item.DefinitionID]; ok {
					cells[col] = item.Value
				}
			}
			w.row(cells...)
		}
	}
	return w.err
}

func (s *Service) writeDataSheet(wb *excelize.File, rep research.Report) error {
	w := newSheetWriter(wb, "Data", s.cfg.SheetMaxRows)
	w.row("Date", "Users", "Apiaries", "Hives", "Inspections", "Devices", "Measurements")
	for _, b := range rep.Buckets {
		w.row(b.Date, b.Users, b.Apiaries, b.Hives, b.Inspections, b.Devices, b.Measurements)
	}
	return w.err
}

// sheetWriter appends rows to one sheet, tracking the first error and the
// sheet's row cap.
type sheetWriter struct {
	wb      *excelize.File
	sheet   string
	next    int
	maxRows int
	err     error
}

func newSheetWriter(wb *excelize.File, sheet string, maxRows int) *sheetWriter {
	w := &sheetWriter{wb: wb, sheet: sheet, next: 1, maxRows: maxRows}
	if _, err := wb.NewSheet(sheet); err != nil {
		w.err = fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return w
}

func (w *sheetWriter) row(cells ...interface{}) {
	if w.err != nil || w.next > w.maxRows {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		w.err = err
		return
	}
	if err := w.wb.SetSheetRow(w.sheet, cell, &cells); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", w.sheet, w.next, err)
		return
	}
	w.next++
}

func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func deletedDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return day(*t)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
